package lex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/regex"
)

func buildArithGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	b := grammar.NewBuilder()
	b.AutoWhitespace(true)
	num := b.Terminal("num", regex.MustCompile(`[0-9]+`), nil)
	plus := b.Literal("+")
	star := b.Literal("*")
	start := b.Nonterminal("start")
	b.Start("start")
	b.SetProductions(start, func(ps *grammar.ProductionSet) {
		ps.Rule().Extend(grammar.TermSymbol(num)).
			Append(grammar.TermSymbol(plus)).
			Extend(grammar.TermSymbol(num)).
			FinishConstant(nil)
		ps.Rule().Extend(grammar.TermSymbol(num)).
			Append(grammar.TermSymbol(star)).
			Extend(grammar.TermSymbol(num)).
			FinishConstant(nil)
		ps.Rule().Extend(grammar.TermSymbol(num)).FinishConstant(nil)
	})
	g, diags := b.Build()
	require.False(t, diags.HasErrors(), "unexpected errors: %v", diags)
	return g
}

func TestTokenizer_SkipsAutoWhitespaceBetweenTokens(t *testing.T) {
	g := buildArithGrammar(t)
	compiled, _, err := Compile(g)
	require.NoError(t, err)

	tz := NewTokenizer(g, compiled, "12 + 34")
	var lexemes []string
	for {
		tok, err := tz.Next()
		require.NoError(t, err)
		if tok.IsEndOfInput() {
			break
		}
		lexemes = append(lexemes, tok.Lexeme)
	}
	assert.Equal(t, []string{"12", "+", "34"}, lexemes)
}

func TestTokenizer_LongestMatchPrefersLiteralOverPattern(t *testing.T) {
	b := grammar.NewBuilder()
	kw := b.Literal("if")
	ident := b.Terminal("ident", regex.MustCompile(`[a-z]+`), nil)
	start := b.Nonterminal("start")
	b.Start("start")
	b.SetProductions(start, func(ps *grammar.ProductionSet) {
		ps.Rule().Extend(grammar.TermSymbol(kw)).FinishConstant(nil)
		ps.Rule().Extend(grammar.TermSymbol(ident)).FinishConstant(nil)
	})
	g, diags := b.Build()
	require.False(t, diags.HasErrors())

	compiled, _, err := Compile(g)
	require.NoError(t, err)

	tz := NewTokenizer(g, compiled, "if")
	tok, err := tz.Next()
	require.NoError(t, err)
	assert.Equal(t, kw, tok.Term)
	assert.Equal(t, "if", tok.Lexeme)
}

func TestTokenizer_ReportsLexicalErrorPosition(t *testing.T) {
	g := buildArithGrammar(t)
	compiled, _, err := Compile(g)
	require.NoError(t, err)

	tz := NewTokenizer(g, compiled, "12 $ 34")
	_, err = tz.Next()
	require.NoError(t, err)
	_, err = tz.Next()
	require.Error(t, err)

	// "$" is the fourth character of line 1.
	d, ok := err.(diag.Diagnostic)
	require.True(t, ok, "want a diag.Diagnostic, got %T", err)
	assert.Equal(t, diag.LexicalError, d.Code)
	assert.True(t, d.HasPosition)
	assert.Equal(t, diag.Position{Line: 1, Col: 4}, d.Position)
}

func TestTokenizer_LineGroupExcludesTerminatingNewline(t *testing.T) {
	b := grammar.NewBuilder()
	b.AutoWhitespace(true)
	bang := b.Terminal("line_start", regex.MustCompile(`!!`), nil)
	container := b.Terminal("line_comment", nil, nil)
	b.Hidden(bang)
	b.LineGroup(bang, container, 0)

	newline := b.Terminal("newline", regex.MustCompile(`\n|\r\n|\r`), nil)
	b.Hidden(newline)

	start := b.Nonterminal("start")
	b.Start("start")
	b.SetProductions(start, func(ps *grammar.ProductionSet) {
		ps.Rule().Extend(grammar.TermSymbol(container)).FinishConstant(nil)
	})
	g, diags := b.Build()
	require.False(t, diags.HasErrors(), "unexpected errors: %v", diags)

	compiled, _, err := Compile(g)
	require.NoError(t, err)

	tz := NewTokenizer(g, compiled, "!! No new line")
	tok, err := tz.Next()
	require.NoError(t, err)
	assert.Equal(t, container, tok.Term)
	assert.Equal(t, "!! No new line", tok.Lexeme)

	tz2 := NewTokenizer(g, compiled, "!! Has new line\n")
	tok2, err := tz2.Next()
	require.NoError(t, err)
	assert.Equal(t, container, tok2.Term)
	assert.Equal(t, "!! Has new line", tok2.Lexeme)

	tok3, err := tz2.Next()
	require.NoError(t, err)
	assert.Equal(t, newline, tok3.Term)
}

func TestTokenizer_BlockGroupCapturesUnicodeContent(t *testing.T) {
	b := grammar.NewBuilder()
	open := b.Terminal("brace_open", regex.MustCompile(`\{`), nil)
	closeT := b.Terminal("brace_close", regex.MustCompile(`\}`), nil)
	container := b.Terminal("blob", nil, nil)
	b.Hidden(open)
	b.Hidden(closeT)
	b.BlockGroup(open, closeT, container, 0)
	start := b.Nonterminal("start")
	b.Start("start")
	b.SetProductions(start, func(ps *grammar.ProductionSet) {
		ps.Rule().Extend(grammar.TermSymbol(container)).FinishConstant(nil)
	})
	g, diags := b.Build()
	require.False(t, diags.HasErrors(), "unexpected errors: %v", diags)

	compiled, _, err := Compile(g)
	require.NoError(t, err)

	tz := NewTokenizer(g, compiled, "{\U0001F199\U0001F199}")
	tok, err := tz.Next()
	require.NoError(t, err)
	assert.Equal(t, container, tok.Term)
	assert.Equal(t, "{\U0001F199\U0001F199", tok.Lexeme)
}
