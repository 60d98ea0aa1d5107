package lalr

import (
	"testing"

	"github.com/dekarrin/farkle/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildExprGrammar builds the textbook arithmetic grammar:
//
//	E -> E '+' T | T
//	T -> T '*' F | F
//	F -> '(' E ')' | id
func buildExprGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	b := grammar.NewBuilder()
	id := b.Literal("id")
	plus := b.Literal("+")
	star := b.Literal("*")
	lparen := b.Literal("(")
	rparen := b.Literal(")")

	e := b.Nonterminal("E")
	tm := b.Nonterminal("T")
	f := b.Nonterminal("F")
	b.Start("E")

	fuse := func(values []any, meta grammar.FuseMeta) (any, error) { return values, nil }

	b.SetProductions(e, func(ps *grammar.ProductionSet) {
		ps.Rule().Extend(grammar.NontermSymbol(e)).Append(grammar.TermSymbol(plus)).Extend(grammar.NontermSymbol(tm)).Finish(fuse)
		ps.Rule().Extend(grammar.NontermSymbol(tm)).Finish(fuse)
	})
	b.SetProductions(tm, func(ps *grammar.ProductionSet) {
		ps.Rule().Extend(grammar.NontermSymbol(tm)).Append(grammar.TermSymbol(star)).Extend(grammar.NontermSymbol(f)).Finish(fuse)
		ps.Rule().Extend(grammar.NontermSymbol(f)).Finish(fuse)
	})
	b.SetProductions(f, func(ps *grammar.ProductionSet) {
		ps.Rule().Append(grammar.TermSymbol(lparen)).Extend(grammar.NontermSymbol(e)).Append(grammar.TermSymbol(rparen)).Finish(fuse)
		ps.Rule().Extend(grammar.TermSymbol(id)).Finish(fuse)
	})

	g, diags := b.Build()
	require.False(t, diags.HasErrors(), "unexpected errors: %v", diags)
	return g
}

func TestBuild_ExprGrammarHasNoConflicts(t *testing.T) {
	g := buildExprGrammar(t)
	table, diags := Build(g)
	require.Empty(t, diags, "unexpected conflicts: %v", diags)
	assert.NotEmpty(t, table.States)
}

func TestBuild_TableStringDoesNotPanic(t *testing.T) {
	g := buildExprGrammar(t)
	table, _ := Build(g)
	assert.NotEmpty(t, table.String())
}

func TestBuild_TableSummaryReportsCounts(t *testing.T) {
	g := buildExprGrammar(t)
	table, _ := Build(g)
	summary := table.Summary()
	assert.Contains(t, summary, "states")
	// five literals plus the synthesized $whitespace terminal
	assert.Contains(t, summary, "6 terminals")
	assert.Contains(t, summary, "3 nonterminals")
}

// buildNonAssocGrammar builds a single-level grammar with * declared
// nonassociative, so that a chain like 3*4*5 has no rule for resolving the
// second '*' against the pending reduce of the first.
func buildNonAssocGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	b := grammar.NewBuilder()
	num := b.Literal("num")
	star := b.Literal("*")
	b.OperatorScope(grammar.NewOperatorScope(false,
		grammar.PrecGroup{Assoc: grammar.AssocNonAssoc, Tokens: []grammar.PrecToken{`"*"`}},
	))

	e := b.Nonterminal("E")
	b.Start("E")
	fuse := func(values []any, meta grammar.FuseMeta) (any, error) { return values, nil }
	b.SetProductions(e, func(ps *grammar.ProductionSet) {
		ps.Rule().Extend(grammar.NontermSymbol(e)).Append(grammar.TermSymbol(star)).Extend(grammar.NontermSymbol(e)).Finish(fuse)
		ps.Rule().Extend(grammar.TermSymbol(num)).Finish(fuse)
	})

	g, diags := b.Build()
	require.False(t, diags.HasErrors(), "unexpected errors: %v", diags)
	return g
}

func TestBuild_NonAssocOperatorUsedAssociativelyErrors(t *testing.T) {
	g := buildNonAssocGrammar(t)
	table, _ := Build(g)

	var found bool
	for _, acts := range table.Action {
		for _, a := range acts {
			if a.Kind == ActionError {
				found = true
			}
		}
	}
	assert.True(t, found, "expected an error action where the nonassociative operator collides with itself")
}

func TestItem_RoundTripsThroughString(t *testing.T) {
	g := buildExprGrammar(t)
	table, _ := Build(g)

	var sample Item
	found := false
	for _, st := range table.States {
		for _, it := range st.Items {
			if it.Prod != augProdID {
				sample = it
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	require.True(t, found)

	s := sample.String(g)
	parsed, err := ParseItem(g, s)
	require.NoError(t, err)
	assert.Equal(t, sample, parsed)
}
