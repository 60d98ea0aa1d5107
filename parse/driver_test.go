package parse

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/lalr"
	"github.com/dekarrin/farkle/lex"
	"github.com/dekarrin/farkle/regex"
)

// buildCalcGrammar builds the textbook arithmetic grammar with real
// arithmetic semantics attached, so Parse's result can be checked against
// the expected numeric value instead of just a parse-tree shape:
//
//	E -> E '+' T | T
//	T -> T '*' F | F
//	F -> '(' E ')' | num
func buildCalcGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	b := grammar.NewBuilder()
	b.AutoWhitespace(true)

	num := b.Terminal("num", regex.MustCompile(`[0-9]+`), func(pos grammar.Position, text string) (any, error) {
		return strconv.Atoi(text)
	})
	plus := b.Literal("+")
	star := b.Literal("*")
	lparen := b.Literal("(")
	rparen := b.Literal(")")

	e := b.Nonterminal("E")
	tm := b.Nonterminal("T")
	f := b.Nonterminal("F")
	b.Start("E")

	passthrough := func(values []any, meta grammar.FuseMeta) (any, error) { return values[0], nil }

	b.SetProductions(e, func(ps *grammar.ProductionSet) {
		ps.Rule().Extend(grammar.NontermSymbol(e)).Append(grammar.TermSymbol(plus)).Extend(grammar.NontermSymbol(tm)).
			Finish(func(values []any, meta grammar.FuseMeta) (any, error) {
				return values[0].(int) + values[1].(int), nil
			})
		ps.Rule().Extend(grammar.NontermSymbol(tm)).Finish(passthrough)
	})
	b.SetProductions(tm, func(ps *grammar.ProductionSet) {
		ps.Rule().Extend(grammar.NontermSymbol(tm)).Append(grammar.TermSymbol(star)).Extend(grammar.NontermSymbol(f)).
			Finish(func(values []any, meta grammar.FuseMeta) (any, error) {
				return values[0].(int) * values[1].(int), nil
			})
		ps.Rule().Extend(grammar.NontermSymbol(f)).Finish(passthrough)
	})
	b.SetProductions(f, func(ps *grammar.ProductionSet) {
		ps.Rule().Append(grammar.TermSymbol(lparen)).Extend(grammar.NontermSymbol(e)).Append(grammar.TermSymbol(rparen)).
			Finish(passthrough)
		ps.Rule().Extend(grammar.TermSymbol(num)).Finish(passthrough)
	})

	g, diags := b.Build()
	require.False(t, diags.HasErrors(), "unexpected errors: %v", diags)
	return g
}

func newCalcDriver(t *testing.T, input string) (*Driver, *grammar.Grammar) {
	t.Helper()
	g := buildCalcGrammar(t)
	table, diags := lalr.Build(g)
	require.Empty(t, diags, "unexpected conflicts: %v", diags)

	compiled, _, err := lex.Compile(g)
	require.NoError(t, err)

	tz := lex.NewTokenizer(g, compiled, input)
	return NewDriver(g, table, tz), g
}

func TestDriver_ParsesArithmeticWithPrecedence(t *testing.T) {
	d, _ := newCalcDriver(t, "3+4*5")
	v, err := d.Parse()
	require.NoError(t, err)
	assert.Equal(t, 23, v)
}

func TestDriver_ParensOverridePrecedence(t *testing.T) {
	d, _ := newCalcDriver(t, "(3+4)*5")
	v, err := d.Parse()
	require.NoError(t, err)
	assert.Equal(t, 35, v)
}

func TestDriver_SyntaxErrorReportsPositionAndExpectedSet(t *testing.T) {
	d, _ := newCalcDriver(t, "3 4")
	_, err := d.Parse()
	require.Error(t, err)
	diagErr, ok := err.(diag.Diagnostic)
	require.True(t, ok, "expected a diag.Diagnostic, got %T", err)
	assert.Equal(t, diag.SyntaxError, diagErr.Code)
	assert.Equal(t, 1, diagErr.Position.Line)
	assert.Equal(t, 3, diagErr.Position.Col)
}

func TestDriver_UnexpectedEndOfInput(t *testing.T) {
	d, _ := newCalcDriver(t, "3*")
	_, err := d.Parse()
	require.Error(t, err)
	diagErr, ok := err.(diag.Diagnostic)
	require.True(t, ok, "expected a diag.Diagnostic, got %T", err)
	assert.Equal(t, diag.UnexpectedEndOfInput, diagErr.Code)
}

func TestDriver_TraceHookReceivesSteps(t *testing.T) {
	d, _ := newCalcDriver(t, "1+2")
	var lines []string
	d.OnTrace(func(s string) { lines = append(lines, s) })
	_, err := d.Parse()
	require.NoError(t, err)
	assert.NotEmpty(t, lines)
}
