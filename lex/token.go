package lex

import (
	"fmt"

	"github.com/dekarrin/farkle/grammar"
)

// EndOfInput is the sentinel terminal handle Next returns once every real
// character has been consumed, in the same negative-sentinel-handle idiom
// lalr's augmented grammar uses for its own synthetic start production:
// real terminal handles are always non-negative, so -1 can never collide
// with one.
const EndOfInput grammar.TermID = -1

// Token is one lexeme recognized by the tokenizer, tagged with the
// terminal it matched and its source position (§3, §4.7).
type Token struct {
	Term   grammar.TermID
	Lexeme string
	Pos    grammar.Position
}

// IsEndOfInput reports whether t is the sentinel token Next returns once
// the stream is exhausted.
func (t Token) IsEndOfInput() bool { return t.Term == EndOfInput }

func (t Token) String() string {
	if t.IsEndOfInput() {
		return fmt.Sprintf("<end-of-input> @%s", t.Pos)
	}
	return fmt.Sprintf("%d %q @%s", t.Term, t.Lexeme, t.Pos)
}
