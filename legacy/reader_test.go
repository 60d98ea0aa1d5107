package legacy

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/farkle/lalr"
	"github.com/dekarrin/farkle/lex"
)

// The legacy importer is read-only by design (§6): no encoder ships in the
// package, since nothing in this module ever needs to write the legacy
// format. These helpers exist only to hand-build a minimal fixture stream
// for Import to read, the same role buildSumGrammar plays for the artifact
// codec's round-trip tests.

func u16Bytes(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func entryU16(v uint16) []byte { return append([]byte{entryUInt16}, u16Bytes(v)...) }
func entryB(v byte) []byte     { return []byte{entryByte, v} }
func entryBoolVal(v bool) []byte {
	if v {
		return []byte{entryBool, 1}
	}
	return []byte{entryBool, 0}
}
func entryStr(s string) []byte {
	out := []byte{entryString}
	out = append(out, []byte(s)...)
	out = append(out, 0)
	return out
}

func buildRecord(tag byte, entries ...[]byte) []byte {
	var body []byte
	for _, e := range entries {
		body = append(body, e...)
	}
	out := []byte{tag}
	out = append(out, u16Bytes(uint16(len(entries)))...)
	out = append(out, body...)
	return out
}

// buildTinyFixture assembles a complete legacy file for the one-rule
// grammar S -> num, where num matches a single digit '0'-'9'.
func buildTinyFixture(t *testing.T) []byte {
	t.Helper()
	var data []byte
	data = append(data, magic[:]...)

	params := buildRecord(recParameters,
		entryStr("Tiny"),
		entryBoolVal(true),
		entryBoolVal(false),
		entryU16(0),
	)
	symS := buildRecord(recSymbol, entryU16(0), entryStr("S"), entryB(byte(symNonterminal)))
	symNum := buildRecord(recSymbol, entryU16(1), entryStr("num"), entryB(byte(symTerminal)))
	symEOF := buildRecord(recSymbol, entryU16(2), entryStr("EOF"), entryB(byte(symEndOfInput)))

	rule0 := buildRecord(recRule, entryU16(0), entryU16(0), entryU16(1), entryU16(1))

	charset0 := buildRecord(recCharSet, entryU16(0), entryU16(1), entryU16('0'), entryU16('9'))

	dfaState0 := buildRecord(recDFAState, entryU16(0), entryBoolVal(false), entryU16(0), entryU16(1), entryU16(0), entryU16(1))
	dfaState1 := buildRecord(recDFAState, entryU16(1), entryBoolVal(true), entryU16(1), entryU16(0))

	initial := buildRecord(recInitial, entryU16(0))

	lalr0 := buildRecord(recLALRState, entryU16(0), entryU16(2),
		entryU16(1), entryB(actShift), entryU16(2),
		entryU16(0), entryB(actGoto), entryU16(1),
	)
	lalr1 := buildRecord(recLALRState, entryU16(1), entryU16(1),
		entryU16(2), entryB(actAccept), entryU16(0),
	)
	lalr2 := buildRecord(recLALRState, entryU16(2), entryU16(1),
		entryU16(2), entryB(actReduce), entryU16(0),
	)

	for _, rec := range [][]byte{params, symS, symNum, symEOF, rule0, charset0, dfaState0, dfaState1, initial, lalr0, lalr1, lalr2} {
		data = append(data, rec...)
	}
	return data
}

func TestImport_ReconstructsGrammarTableAndLexer(t *testing.T) {
	data := buildTinyFixture(t)
	compiled, diags, err := Import(data, Callbacks{})
	require.NoError(t, err)
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %v", diags)

	require.NotNil(t, compiled.Grammar)
	assert.Equal(t, 1, compiled.Grammar.NumTerminals())
	assert.Equal(t, 1, compiled.Grammar.NumNonterminals())

	require.NotNil(t, compiled.Table)
	require.NotNil(t, compiled.Lex)

	tz := lex.NewTokenizer(compiled.Grammar, compiled.Lex, "5")
	tok, err := tz.Next()
	require.NoError(t, err)
	assert.Equal(t, "5", tok.Lexeme)

	state0 := compiled.Table.Action[0][tok.Term]
	assert.Equal(t, lalr.ActionShift, state0.Kind)
	assert.Equal(t, 2, state0.State)

	reduceAction := compiled.Table.Action[2][lalr.EOF]
	assert.Equal(t, lalr.ActionReduce, reduceAction.Kind)

	acceptAction := compiled.Table.Action[1][lalr.EOF]
	assert.Equal(t, lalr.ActionAccept, acceptAction.Kind)
}

func TestImport_RejectsBadMagic(t *testing.T) {
	_, _, err := Import([]byte("not a legacy file at all"), Callbacks{})
	require.Error(t, err)
}
