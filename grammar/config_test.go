package grammar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOptionsTOML(t *testing.T) {
	doc := `
case_sensitive = false
auto_whitespace = true
grammar_name = "demo"

[[comments]]
kind = "line"
start = "//"

[[comments]]
kind = "block"
start = "/*"
end = "*/"
`
	opts, err := LoadOptionsTOML(strings.NewReader(doc))
	require.NoError(t, err)
	assert.False(t, opts.CaseSensitive)
	assert.True(t, opts.AutoWhitespace)
	assert.Equal(t, "demo", opts.GrammarName)
	require.Len(t, opts.Comments, 2)
	assert.Equal(t, LineComment, opts.Comments[0].Kind)
	assert.Equal(t, "//", opts.Comments[0].Start)
	assert.Equal(t, BlockComment, opts.Comments[1].Kind)
	assert.Equal(t, "*/", opts.Comments[1].End)
}

func TestBuilder_ApplyOptions(t *testing.T) {
	b := NewBuilder()
	b.ApplyOptions(Options{CaseSensitive: false, AutoWhitespace: false, GrammarName: "applied"})
	assert.False(t, b.opts.CaseSensitive)
	assert.False(t, b.opts.AutoWhitespace)
	assert.Equal(t, "applied", b.opts.GrammarName)
}
