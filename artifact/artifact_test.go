package artifact

import (
	"testing"

	"github.com/dekarrin/farkle/automaton"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/lalr"
	"github.com/dekarrin/farkle/regex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSumGrammar builds a tiny left-recursive "sum -> sum '+' num | num"
// grammar plus its LALR table and tokenizer DFA, for use as round-trip
// fixtures.
func buildSumGrammar(t *testing.T) Compiled {
	t.Helper()
	b := grammar.NewBuilder()
	b.GrammarName("sum")

	plus := b.Literal("+")
	numPat, err := regex.Compile(`[0-9]+`)
	require.NoError(t, err)
	num := b.Terminal("num", numPat, func(pos grammar.Position, text string) (any, error) {
		return text, nil
	})

	sum := b.Nonterminal("sum")
	b.Start("sum")

	fuse := func(values []any, meta grammar.FuseMeta) (any, error) { return values, nil }
	b.SetProductions(sum, func(ps *grammar.ProductionSet) {
		ps.Rule().Extend(grammar.NontermSymbol(sum)).Append(grammar.TermSymbol(plus)).Extend(grammar.TermSymbol(num)).Finish(fuse)
		ps.Rule().Extend(grammar.TermSymbol(num)).Finish(fuse)
	})

	g, diags := b.Build()
	require.False(t, diags.HasErrors(), "unexpected errors: %v", diags)

	table, diags := lalr.Build(g)
	require.Empty(t, diags, "unexpected conflicts: %v", diags)

	plusPat, err := regex.Compile(`\+`)
	require.NoError(t, err)
	plusNFA := automaton.FromPattern[int32](plusPat, int32(plus))
	numNFA := automaton.FromPattern[int32](numPat, int32(num))
	merged := automaton.Union[int32](plusNFA, numNFA)
	dfa := automaton.Subset[int32](merged, func(labels []int32) (int32, bool) {
		return labels[0], len(labels) > 1
	})

	return Compiled{Grammar: g, Table: table, DFA: dfa}
}

func TestSaveLoad_RoundTripsGrammarShape(t *testing.T) {
	c := buildSumGrammar(t)

	data, id, err := Save(c)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.NotEqual(t, [16]byte{}, [16]byte(id))

	loaded, loadedID, err := Load(data, Callbacks{})
	require.NoError(t, err)
	assert.Equal(t, id, loadedID)

	require.Equal(t, c.Grammar.NumTerminals(), loaded.Grammar.NumTerminals())
	require.Equal(t, c.Grammar.NumNonterminals(), loaded.Grammar.NumNonterminals())
	assert.Equal(t, len(c.Grammar.Productions()), len(loaded.Grammar.Productions()))
	assert.Equal(t, c.Grammar.Name(), loaded.Grammar.Name())

	for i, term := range c.Grammar.Terminals() {
		assert.Equal(t, term.Name, loaded.Grammar.Terminal(grammar.TermID(i)).Name)
	}

	require.NotNil(t, loaded.Table)
	assert.Equal(t, len(c.Table.Action), len(loaded.Table.Action))
	for state, row := range c.Table.Action {
		for term, action := range row {
			assert.Equal(t, action, loaded.Table.Action[state][term])
		}
	}

	require.NotNil(t, loaded.DFA)
	assert.Equal(t, len(c.DFA.States), len(loaded.DFA.States))
	assert.Equal(t, c.DFA.Start, loaded.DFA.Start)
}

func TestSaveLoad_DetectsCorruption(t *testing.T) {
	c := buildSumGrammar(t)
	data, _, err := Save(c)
	require.NoError(t, err)

	corrupt := append([]byte(nil), data...)
	corrupt[len(corrupt)-1] ^= 0xFF

	_, _, err = Load(corrupt, Callbacks{})
	assert.Error(t, err)
}

func TestSaveLoad_RejectsTruncatedHeader(t *testing.T) {
	_, _, err := Load([]byte{'F', 'K'}, Callbacks{})
	assert.Error(t, err)
}
