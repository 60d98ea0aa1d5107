package grammar

import "fmt"

// CommentKind distinguishes a line comment from a block comment in grammar
// metadata (§4.1).
type CommentKind int

const (
	LineComment CommentKind = iota
	BlockComment
)

// CommentSpec declares one of a grammar's noise comment forms.
type CommentSpec struct {
	Kind  CommentKind
	Start string
	End   string // unused for LineComment
}

// NoiseSymbol declares an additional terminal that is lexed but never
// passed to the parser (§4.1's noise_symbols option).
type NoiseSymbol struct {
	Name    string
	Pattern Regexer
}

// Options holds the grammar-wide metadata recognised by the builder
// (§4.1). The zero value is not valid; use DefaultOptions.
type Options struct {
	CaseSensitive  bool
	AutoWhitespace bool
	Comments       []CommentSpec
	NoiseSymbols   []NoiseSymbol
	GrammarName    string

	// PrioritiseByOrder controls how the DFA compiler breaks a tie between
	// two terminal patterns that both match the same text ending at the
	// same state (§4.3 step 4): when true, the terminal declared first
	// wins silently; when false, the tie is instead reported as a
	// DFAConflict diagnostic and the lowest TermID still wins (a build
	// can't leave a DFA state without an accept label).
	PrioritiseByOrder bool
}

// DefaultOptions returns the documented defaults: case-sensitive,
// auto-whitespace on, order-priority tie-breaking on, no comments or extra
// noise.
func DefaultOptions() Options {
	return Options{
		CaseSensitive:     true,
		AutoWhitespace:    true,
		PrioritiseByOrder: true,
	}
}

// Grammar is the frozen, analysed result of a Builder's symbol graph. It is
// immutable; all accessors are read-only. A Grammar is safe to share across
// goroutines (§5).
type Grammar struct {
	name  string
	opts  Options
	terms []Terminal
	nts   []Nonterminal
	prods []Production
	groups []Group

	// transforms holds each terminal's semantic-value callback, keyed by
	// handle. It's deliberately absent from the artifact wire format (§4.6):
	// a saved grammar's callbacks are supplied fresh by the loading caller,
	// since a closure can't be serialized.
	transforms map[TermID]TransformFunc

	start       NontermID
	newlineTerm TermID
	hasNewline  bool

	opScope *OperatorScope

	// IsFailing is true when Build collected one or more ERROR
	// diagnostics; the grammar must not be compiled further (§7).
	IsFailing bool
}

// Name returns the grammar's declared name, or "" if none was set.
func (g *Grammar) Name() string { return g.name }

// Options returns the grammar-wide metadata in effect.
func (g *Grammar) Options() Options { return g.opts }

// NumTerminals returns the number of terminals, T. Terminal handles are
// 0..T-1.
func (g *Grammar) NumTerminals() int { return len(g.terms) }

// NumNonterminals returns the number of nonterminals.
func (g *Grammar) NumNonterminals() int { return len(g.nts) }

// Terminal returns the terminal with the given handle.
func (g *Grammar) Terminal(id TermID) Terminal { return g.terms[id] }

// Terminals returns all terminals in handle order.
func (g *Grammar) Terminals() []Terminal { return g.terms }

// Nonterminal returns the nonterminal with the given handle.
func (g *Grammar) Nonterminal(id NontermID) Nonterminal { return g.nts[id] }

// Nonterminals returns all nonterminals in handle order.
func (g *Grammar) Nonterminals() []Nonterminal { return g.nts }

// Production returns the production with the given handle.
func (g *Grammar) Production(id ProdID) Production { return g.prods[id] }

// Productions returns all productions in handle (declaration) order. They
// are not sorted by head; each nonterminal's productions still form a
// contiguous range, since SetProductions adds all of them in one call.
func (g *Grammar) Productions() []Production { return g.prods }

// ProductionsOf returns the productions belonging to the given nonterminal,
// in declaration order.
func (g *Grammar) ProductionsOf(nt NontermID) []Production {
	ids := g.nts[nt].Productions
	out := make([]Production, len(ids))
	for i, id := range ids {
		out[i] = g.prods[id]
	}
	return out
}

// Transform returns the transform callback declared for terminal id, or nil
// if none was given (the terminal's matched text becomes a plain string).
func (g *Grammar) Transform(id TermID) TransformFunc { return g.transforms[id] }

// Group returns the group with the given handle.
func (g *Grammar) Group(id GroupID) Group { return g.groups[id] }

// Groups returns all declared lexical groups.
func (g *Grammar) Groups() []Group { return g.groups }

// StartSymbol returns the nonterminal handle the grammar derives from.
func (g *Grammar) StartSymbol() NontermID { return g.start }

// NewlineTerminal returns the handle of the `newline` singleton terminal and
// whether the grammar declared one, making it line-aware (§4.1).
func (g *Grammar) NewlineTerminal() (TermID, bool) { return g.newlineTerm, g.hasNewline }

// AutoWhitespaceTerminal returns the handle of the synthesized
// auto-whitespace terminal and whether it exists (only when Options.
// AutoWhitespace was set). The tokenizer uses this to silently skip runs of
// plain whitespace (§4.7 step 1) without special-casing any other
// noise-attributed terminal (declared comments, noise symbols): those are
// reported as ordinary tokens so the LR driver can drop them itself while
// still referencing them in diagnostics (§4.8 step 1).
func (g *Grammar) AutoWhitespaceTerminal() (TermID, bool) {
	if !g.opts.AutoWhitespace {
		return 0, false
	}
	for _, t := range g.terms {
		if t.Name == "$whitespace" {
			return t.ID, true
		}
	}
	return 0, false
}

// OperatorScope returns the grammar's single global operator scope, or nil
// if none was set (§4.5).
func (g *Grammar) OperatorScope() *OperatorScope { return g.opScope }

// SymbolName returns the display name for a packed Symbol handle, following
// any rename override.
func (g *Grammar) SymbolName(s Symbol) string {
	if s.IsTerminal() {
		return g.terms[s.Term()].Human()
	}
	return g.nts[s.Nonterm()].Human()
}

// IsTerminal reports whether s is a terminal symbol. Convenience wrapper
// matching the shape callers expect from a grammar-level query rather than
// decoding the handle themselves.
func (g *Grammar) IsTerminal(s Symbol) bool { return s.IsTerminal() }

// RightmostTerminal returns the rightmost terminal in a production's body
// and whether one exists, used for the default shift/reduce precedence rule
// (§4.4) when a production has no explicit contextual precedence token.
func (g *Grammar) RightmostTerminal(p Production) (TermID, bool) {
	for i := len(p.Body) - 1; i >= 0; i-- {
		if p.Body[i].IsTerminal() {
			return p.Body[i].Term(), true
		}
	}
	return 0, false
}

// String gives a compact human-readable dump, mainly for tests and
// debugging.
func (g *Grammar) String() string {
	return fmt.Sprintf("Grammar<%s: %d terminals, %d nonterminals, %d productions, %d groups>",
		g.name, len(g.terms), len(g.nts), len(g.prods), len(g.groups))
}
