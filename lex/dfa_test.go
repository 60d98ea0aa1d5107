package lex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/regex"
)

func buildAmbiguousTerminalGrammar(t *testing.T, prioritiseByOrder bool) *grammar.Grammar {
	t.Helper()
	b := grammar.NewBuilder()
	b.PrioritiseByOrder(prioritiseByOrder)
	a := b.Literal("true")
	c := b.Terminal("bool_lit", regex.MustCompile(`true`), nil)
	start := b.Nonterminal("start")
	b.Start("start")
	b.SetProductions(start, func(ps *grammar.ProductionSet) {
		ps.Rule().Extend(grammar.TermSymbol(a)).FinishConstant(nil)
		ps.Rule().Extend(grammar.TermSymbol(c)).FinishConstant(nil)
	})
	g, diags := b.Build()
	require.False(t, diags.HasErrors(), "unexpected errors: %v", diags)
	return g
}

func TestBuildDFA_PrioritiseByOrderSuppressesConflictDiagnostic(t *testing.T) {
	g := buildAmbiguousTerminalGrammar(t, true)
	_, diags, err := BuildDFA(g)
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestBuildDFA_DisablingPrioritiseByOrderReportsConflict(t *testing.T) {
	g := buildAmbiguousTerminalGrammar(t, false)
	_, diags, err := BuildDFA(g)
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	assert.Equal(t, diag.DFAConflict, diags[0].Code)
}
