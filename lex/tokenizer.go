package lex

import (
	"github.com/dekarrin/farkle/automaton"
	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
)

// groupFrame is one entry of the tokenizer's group stack (§4.7 step 4;
// §4.9's OUTSIDE -> INSIDE_GROUP(g) -> OUTSIDE state machine, with nesting
// pushing additional frames rather than replacing the current one).
type groupFrame struct {
	group grammar.Group
	start grammar.Position
	text  []rune
}

// Tokenizer drives a Compiled automaton set over character input,
// producing one Token per call to Next() (§4.7): DFA-driven longest-match
// scanning, group/comment consumption, and newline-aware position
// tracking. A Tokenizer is not safe for concurrent use; each parse owns one
// (§5).
type Tokenizer struct {
	g        *grammar.Grammar
	compiled *Compiled

	runes []rune
	pos   int

	line, col int
	afterCR   bool

	stack []groupFrame

	groupStarts map[grammar.TermID]grammar.Group

	wsTerm  grammar.TermID
	hasWS   bool
}

// NewTokenizer returns a Tokenizer ready to scan input against g using the
// automata in compiled (as produced by Compile).
func NewTokenizer(g *grammar.Grammar, compiled *Compiled, input string) *Tokenizer {
	tz := &Tokenizer{
		g:           g,
		compiled:    compiled,
		runes:       []rune(input),
		line:        1,
		col:         1,
		groupStarts: make(map[grammar.TermID]grammar.Group),
	}
	for _, grp := range g.Groups() {
		tz.groupStarts[grp.StartTerm] = grp
	}
	tz.wsTerm, tz.hasWS = g.AutoWhitespaceTerminal()
	return tz
}

// Position returns the tokenizer's current 1-based line/column.
func (tz *Tokenizer) Position() grammar.Position {
	return grammar.Position{Line: tz.line, Col: tz.col}
}

// InGroup reports whether the tokenizer is currently inside a lexical
// group (§4.9's INSIDE_GROUP state).
func (tz *Tokenizer) InGroup() bool { return len(tz.stack) > 0 }

// GroupDepth returns the current group nesting depth (0 at top level).
func (tz *Tokenizer) GroupDepth() int { return len(tz.stack) }

func (tz *Tokenizer) atEOF() bool { return tz.pos >= len(tz.runes) }

func (tz *Tokenizer) peekRune() (rune, bool) {
	if tz.atEOF() {
		return 0, false
	}
	return tz.runes[tz.pos], true
}

// advance consumes exactly one rune and updates line/col, counting \r\n,
// \n, and \r each as exactly one line advance (§4.7 step 5).
func (tz *Tokenizer) advance() rune {
	c := tz.runes[tz.pos]
	tz.pos++
	switch {
	case c == '\n':
		if tz.afterCR {
			tz.afterCR = false
		} else {
			tz.line++
			tz.col = 1
		}
	case c == '\r':
		tz.line++
		tz.col = 1
		tz.afterCR = true
	default:
		tz.afterCR = false
		tz.col++
	}
	return c
}

// runDFA runs d from its start state beginning at runes[start:], returning
// the end index of the longest accepted prefix and its label (§4.3 step 4's
// "longest match" rule, applied at tokenize time rather than compile time).
// ok is false if no prefix of the input, not even the empty one, is
// accepted.
func runDFA[E any](d *automaton.DFA[E], runes []rune, start int) (end int, label E, ok bool) {
	state := d.Start
	bestEnd := -1
	if d.States[state].Accept {
		bestEnd = start
		label = d.States[state].Label
	}
	i := start
	for i < len(runes) {
		next := d.States[state].Step(runes[i])
		if next < 0 {
			break
		}
		state = next
		i++
		if d.States[state].Accept {
			bestEnd = i
			label = d.States[state].Label
		}
	}
	if bestEnd < 0 {
		var zero E
		return 0, zero, false
	}
	return bestEnd, label, true
}

// Next scans and returns the next token, or a diag.Diagnostic error if the
// input can't be lexed (a LEXICAL_ERROR or UNTERMINATED_GROUP). Returns a
// Token with Term == EndOfInput once the stream (and every open group) is
// exhausted.
func (tz *Tokenizer) Next() (Token, error) {
	for {
		if tz.InGroup() {
			tok, done, err := tz.stepGroup()
			if err != nil {
				return Token{}, err
			}
			if !done {
				continue
			}
			return tok, nil
		}

		if tz.hasWS {
			// Skip leading noise/whitespace only at top level (§4.7 step
			// 1); other noise terminals (comments, declared noise symbols)
			// are returned like any other token below, not swallowed here.
			if tz.skipOneWhitespaceRun() {
				continue
			}
		}

		if tz.atEOF() {
			return Token{Term: EndOfInput, Pos: tz.Position()}, nil
		}

		startPos := tz.Position()
		end, label, ok := runDFA(tz.compiled.Main, tz.runes, tz.pos)
		if !ok {
			c, _ := tz.peekRune()
			return Token{}, diag.New(diag.LexicalError, diag.Error,
				"unexpected character %q", c).WithPosition(startPos.Line, startPos.Col)
		}
		lexeme := string(tz.runes[tz.pos:end])
		for tz.pos < end {
			tz.advance()
		}

		term := tz.g.Terminal(label)
		if term.Attrs.Has(grammar.AttrGroupStart) {
			grp := tz.groupStarts[label]
			frame := groupFrame{group: grp, start: startPos, text: []rune(lexeme)}
			tz.stack = append(tz.stack, frame)
			continue
		}

		return Token{Term: label, Lexeme: lexeme, Pos: startPos}, nil
	}
}

// skipOneWhitespaceRun consumes one maximal run of the synthesized
// auto-whitespace terminal starting at the current position, if any is
// present there, and reports whether it did so.
func (tz *Tokenizer) skipOneWhitespaceRun() bool {
	if tz.atEOF() {
		return false
	}
	end, label, ok := runDFA(tz.compiled.Main, tz.runes, tz.pos)
	if !ok || label != tz.wsTerm {
		return false
	}
	for tz.pos < end {
		tz.advance()
	}
	return true
}

// stepGroup advances the tokenizer by one step of work on the innermost
// open group, returning a completed Token with done=true once the
// outermost group fully closes, or done=false if more input must be
// consumed first (§4.7 step 4).
func (tz *Tokenizer) stepGroup() (Token, bool, error) {
	top := &tz.stack[len(tz.stack)-1]
	if top.group.EndKind == grammar.GroupEndsOnEndOfLine {
		return tz.stepLineGroup(top)
	}
	return tz.stepBlockGroup(top)
}

func (tz *Tokenizer) stepLineGroup(top *groupFrame) (Token, bool, error) {
	grp := top.group
	for !tz.atEOF() {
		c, _ := tz.peekRune()
		if c == '\n' || c == '\r' {
			// The terminating newline is left unconsumed so the tokenizer's
			// own newline terminal can recognize it on the next Next() call
			// (§8 scenario 2: "captures ... newline not included").
			return tz.closeTop()
		}
		top.text = append(top.text, tz.advance())
	}
	if grp.Flags.Has(grammar.GroupEndsOnEndOfInput) {
		return tz.closeTop()
	}
	return Token{}, false, diag.New(diag.UnterminatedGroup, diag.Error,
		"unterminated group starting at %s", top.start).
		WithPosition(top.start.Line, top.start.Col).
		WithSymbol(diag.GroupSymbol, tz.g.Terminal(grp.StartTerm).Human())
}

func (tz *Tokenizer) stepBlockGroup(top *groupFrame) (Token, bool, error) {
	grp := top.group
	groupDFA := tz.compiled.Groups[grp.ID]

	if end, sig, ok := runDFA(groupDFA, tz.runes, tz.pos); ok {
		startPos := tz.Position()
		lexeme := string(tz.runes[tz.pos:end])
		for tz.pos < end {
			tz.advance()
		}
		if sig.isEnd {
			if grp.Flags.Has(grammar.GroupKeepEndToken) {
				top.text = append(top.text, []rune(lexeme)...)
			}
			return tz.closeTop()
		}
		nested := tz.g.Group(sig.nested)
		frame := groupFrame{group: nested, start: startPos, text: []rune(lexeme)}
		tz.stack = append(tz.stack, frame)
		return Token{}, false, nil
	}

	if tz.atEOF() {
		if grp.Flags.Has(grammar.GroupEndsOnEndOfInput) {
			return tz.closeTop()
		}
		return Token{}, false, diag.New(diag.UnterminatedGroup, diag.Error,
			"unterminated group starting at %s", top.start).
			WithPosition(top.start.Line, top.start.Col).
			WithSymbol(diag.GroupSymbol, tz.g.Terminal(grp.StartTerm).Human())
	}

	// No delimiter or nested start matches here; consume one character
	// verbatim. GroupAdvanceByCharacter and the longest-matching-noise-run
	// alternative (§4.7 step 4) accumulate identical text either way, so a
	// single-character step is used uniformly.
	top.text = append(top.text, tz.advance())
	return Token{}, false, nil
}

// closeTop pops the innermost group frame. If an outer group is still
// open, the closed group's text is folded into it (a nested group is never
// reported to the parser on its own); otherwise it becomes the returned
// container Token.
func (tz *Tokenizer) closeTop() (Token, bool, error) {
	top := tz.stack[len(tz.stack)-1]
	tz.stack = tz.stack[:len(tz.stack)-1]
	text := string(top.text)

	if len(tz.stack) > 0 {
		parent := &tz.stack[len(tz.stack)-1]
		parent.text = append(parent.text, []rune(text)...)
		return Token{}, false, nil
	}
	return Token{Term: top.group.Container, Lexeme: text, Pos: top.start}, true, nil
}
