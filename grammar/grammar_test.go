package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCalc returns a tiny left-recursive "sum of numbers" grammar:
//
//	start -> start '+' num | num
func buildCalc(t *testing.T) (*Builder, TermID, TermID, NontermID) {
	t.Helper()
	b := NewBuilder()
	num := b.Terminal("num", literalRegexer(`[0-9]+`), func(pos Position, text string) (any, error) {
		return text, nil
	})
	plus := b.Literal("+")
	start := b.Nonterminal("start")
	b.Start("start")

	b.SetProductions(start, func(ps *ProductionSet) {
		ps.Rule().Extend(NontermSymbol(start)).Append(TermSymbol(plus)).Extend(TermSymbol(num)).
			Finish(func(values []any, meta FuseMeta) (any, error) {
				return values, nil
			})
		ps.Rule().Extend(TermSymbol(num)).
			Finish(func(values []any, meta FuseMeta) (any, error) {
				return values, nil
			})
	})
	return b, num, plus, start
}

func TestBuilder_BuildsValidGrammar(t *testing.T) {
	b, num, plus, start := buildCalc(t)
	g, diags := b.Build()
	require.False(t, diags.HasErrors(), "unexpected errors: %v", diags)

	// num, "+", and the $whitespace terminal synthesized by AutoWhitespace
	// (on by default).
	assert.Equal(t, 3, g.NumTerminals())
	assert.Equal(t, 1, g.NumNonterminals())
	assert.Equal(t, start, g.StartSymbol())
	assert.Equal(t, "num", g.Terminal(num).Name)
	assert.Equal(t, `"+"`, g.Terminal(plus).Name)

	prods := g.ProductionsOf(start)
	require.Len(t, prods, 2)
	assert.Equal(t, []Symbol{NontermSymbol(start), TermSymbol(plus), TermSymbol(num)}, prods[0].Body)
	assert.Equal(t, []bool{true, false, true}, prods[0].Significant)
}

func TestBuilder_LiteralDedupIsIdempotent(t *testing.T) {
	b := NewBuilder()
	a1 := b.Literal("while")
	a2 := b.Literal("while")
	assert.Equal(t, a1, a2)
}

func TestBuilder_MissingStartSymbolIsError(t *testing.T) {
	b := NewBuilder()
	nt := b.Nonterminal("orphan")
	b.SetProductions(nt, func(ps *ProductionSet) {
		ps.Rule().FinishConstant(nil)
	})
	_, diags := b.Build()
	assert.True(t, diags.HasErrors())
}

func TestBuilder_UnsetNonterminalIsError(t *testing.T) {
	b := NewBuilder()
	b.Nonterminal("never_set")
	start := b.Nonterminal("start")
	b.Start("start")
	b.SetProductions(start, func(ps *ProductionSet) {
		ps.Rule().FinishConstant(nil)
	})
	_, diags := b.Build()
	assert.True(t, diags.HasErrors())
}

func TestBuilder_SetProductionsTwiceKeepsFirst(t *testing.T) {
	b := NewBuilder()
	start := b.Nonterminal("start")
	b.Start("start")

	b.SetProductions(start, func(ps *ProductionSet) {
		ps.Rule().FinishConstant("first")
	})
	b.SetProductions(start, func(ps *ProductionSet) {
		ps.Rule().FinishConstant("second")
	})

	g, diags := b.Build()
	require.False(t, diags.HasErrors())
	assert.Len(t, diags.Warnings(), 1)

	prods := g.ProductionsOf(start)
	require.Len(t, prods, 1)
	assert.Equal(t, "first", prods[0].ConstantVal)
}

func TestBuilder_UnreachableNonterminalWarns(t *testing.T) {
	b := NewBuilder()
	start := b.Nonterminal("start")
	unreached := b.Nonterminal("unreached")
	b.Start("start")
	b.SetProductions(start, func(ps *ProductionSet) {
		ps.Rule().FinishConstant(nil)
	})
	b.SetProductions(unreached, func(ps *ProductionSet) {
		ps.Rule().FinishConstant(nil)
	})

	_, diags := b.Build()
	require.False(t, diags.HasErrors())
	require.Len(t, diags.Warnings(), 1)
	assert.Equal(t, "unreached", diags.Warnings()[0].SymbolName)
}
