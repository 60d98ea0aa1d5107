package automaton

import (
	"testing"

	"github.com/dekarrin/farkle/regex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDFA[E any](d *DFA[E], s string) (accepted bool, label E) {
	state := d.Start
	for _, c := range s {
		next := d.States[state].Step(c)
		if next < 0 {
			var zero E
			return false, zero
		}
		state = next
	}
	st := d.States[state]
	return st.Accept, st.Label
}

func compileDFA(t *testing.T, pattern string) *DFA[int] {
	t.Helper()
	p, err := regex.Compile(pattern)
	require.NoError(t, err)
	nfa := FromPattern(p, 1)
	return Subset(nfa, func(labels []int) (int, bool) { return labels[0], len(labels) > 1 })
}

func TestDFA_AcceptsWhatRegexMatches(t *testing.T) {
	cases := []struct {
		pattern string
		accept  []string
		reject  []string
	}{
		{"a*b", []string{"b", "ab", "aaab"}, []string{"a", "ba"}},
		{"[0-9]+", []string{"0", "123"}, []string{"", "a1"}},
		{"(?:ab)+", []string{"ab", "abab"}, []string{"a", "aba"}},
		{"a|b", []string{"a", "b"}, []string{"ab", "c"}},
		{"a{2,3}", []string{"aa", "aaa"}, []string{"a", "aaaa"}},
		{"[^a]", []string{"b", "1"}, []string{"a"}},
	}
	for _, tc := range cases {
		d := compileDFA(t, tc.pattern)
		require.NoError(t, d.Validate())
		for _, s := range tc.accept {
			ok, _ := runDFA(d, s)
			assert.True(t, ok, "pattern %q should accept %q", tc.pattern, s)
		}
		for _, s := range tc.reject {
			ok, _ := runDFA(d, s)
			assert.False(t, ok, "pattern %q should reject %q", tc.pattern, s)
		}
	}
}

func TestMinimize_PreservesLanguage(t *testing.T) {
	d := compileDFA(t, "[0-9]+")
	min := Minimize(d, func(l int) string { return "t" })
	require.NoError(t, min.Validate())

	ok, _ := runDFA(min, "12345")
	assert.True(t, ok)
	ok, _ = runDFA(min, "")
	assert.False(t, ok)
}

func TestFromPatternFold_ExpandsCaseRanges(t *testing.T) {
	p, err := regex.Compile("[a-z]+")
	require.NoError(t, err)
	nfa := FromPatternFold(p, 1, true)
	d := Subset(nfa, func(labels []int) (int, bool) { return labels[0], len(labels) > 1 })
	require.NoError(t, d.Validate())

	ok, _ := runDFA(d, "abc")
	assert.True(t, ok)
	ok, _ = runDFA(d, "ABC")
	assert.True(t, ok, "case-insensitive pattern should also accept upper case")
	ok, _ = runDFA(d, "AbC")
	assert.True(t, ok)
}

func TestUnion_KeepsDistinctLabels(t *testing.T) {
	numPat, err := regex.Compile("[0-9]+")
	require.NoError(t, err)
	idPat, err := regex.Compile("[a-z]+")
	require.NoError(t, err)

	numNFA := FromPattern(numPat, "num")
	idNFA := FromPattern(idPat, "id")
	merged := Union(numNFA, idNFA)

	d := Subset(merged, func(labels []string) (string, bool) { return labels[0], len(labels) > 1 })
	require.NoError(t, d.Validate())

	_, label := runDFA(d, "123")
	assert.Equal(t, "num", label)
	_, label = runDFA(d, "abc")
	assert.Equal(t, "id", label)
}
