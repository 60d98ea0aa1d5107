package regex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Literal(t *testing.T) {
	p, err := Compile("abc")
	require.NoError(t, err)
	c, ok := p.Root.(Concat)
	require.True(t, ok)
	assert.Len(t, c.Elems, 3)
}

func TestCompile_Quantifiers(t *testing.T) {
	cases := []struct {
		pattern string
		min     int
		max     int
	}{
		{"a*", 0, -1},
		{"a+", 1, -1},
		{"a?", 0, 1},
		{"a{3}", 3, 3},
		{"a{2,}", 2, -1},
		{"a{2,5}", 2, 5},
	}
	for _, tc := range cases {
		p, err := Compile(tc.pattern)
		require.NoError(t, err, tc.pattern)
		loop, ok := p.Root.(Loop)
		require.True(t, ok, tc.pattern)
		assert.Equal(t, tc.min, loop.Min, tc.pattern)
		assert.Equal(t, tc.max, loop.Max, tc.pattern)
	}
}

func TestCompile_LiteralBraceFallsThroughWhenNotABound(t *testing.T) {
	p, err := Compile("a{x}")
	require.NoError(t, err)
	c, ok := p.Root.(Concat)
	require.True(t, ok)
	assert.Len(t, c.Elems, 4)
}

func TestCompile_CharClass(t *testing.T) {
	p, err := Compile("[a-z0-9_]")
	require.NoError(t, err)
	cl, ok := p.Root.(Chars)
	require.True(t, ok)
	assert.Len(t, cl.Ranges, 3)
}

func TestCompile_NegatedClass(t *testing.T) {
	p, err := Compile("[^abc]")
	require.NoError(t, err)
	_, ok := p.Root.(AllButChars)
	assert.True(t, ok)
}

func TestCompile_Alternation(t *testing.T) {
	p, err := Compile("cat|dog")
	require.NoError(t, err)
	alt, ok := p.Root.(Alt)
	require.True(t, ok)
	assert.Len(t, alt.Options, 2)
}

func TestCompile_NonCapturingGroup(t *testing.T) {
	p, err := Compile("(?:ab)+")
	require.NoError(t, err)
	loop, ok := p.Root.(Loop)
	require.True(t, ok)
	assert.Equal(t, 1, loop.Min)
	assert.Equal(t, -1, loop.Max)
}

func TestCompile_NamedClass(t *testing.T) {
	p, err := Compile(`\p{Digit}`)
	require.NoError(t, err)
	cl, ok := p.Root.(Chars)
	require.True(t, ok)
	assert.Equal(t, digitRanges, cl.Ranges)
}

func TestCompile_UnknownNamedClassIsError(t *testing.T) {
	_, err := Compile(`\p{Nope}`)
	assert.Error(t, err)
}

func TestStringPattern_Nullable(t *testing.T) {
	p, err := Compile("a*")
	require.NoError(t, err)
	assert.True(t, p.Nullable())

	p, err = Compile("a+")
	require.NoError(t, err)
	assert.False(t, p.Nullable())
}

func TestCompile_UnclosedGroupIsError(t *testing.T) {
	_, err := Compile("(ab")
	assert.Error(t, err)
}
