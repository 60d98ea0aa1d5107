// Package lalr builds the canonical LR(1) item collection for a grammar,
// merges states by core to get an LALR(1) table (§4.4), and resolves
// shift/reduce (and, opt-in, reduce/reduce) conflicts using the grammar's
// operator scope (§4.5).
package lalr

import "github.com/dekarrin/farkle/grammar"

// EOF is the sentinel lookahead terminal representing end of input. It is
// never a real grammar.TermID (those are always >= 0).
const EOF grammar.TermID = -1

// firstSets precomputes nullable-nonterminal and FIRST-set information for
// a grammar, used throughout closure computation.
type firstSets struct {
	g        *grammar.Grammar
	nullable []bool
	first    []map[grammar.TermID]bool // indexed by NontermID
}

func computeFirst(g *grammar.Grammar) *firstSets {
	fs := &firstSets{
		g:        g,
		nullable: make([]bool, g.NumNonterminals()),
		first:    make([]map[grammar.TermID]bool, g.NumNonterminals()),
	}
	for i := range fs.first {
		fs.first[i] = map[grammar.TermID]bool{}
	}

	for changed := true; changed; {
		changed = false
		for _, p := range g.Productions() {
			if !fs.nullable[p.Head] && isNullableBody(fs, p.Body) {
				fs.nullable[p.Head] = true
				changed = true
			}
			before := len(fs.first[p.Head])
			fs.addFirstOfBody(p.Head, p.Body)
			if len(fs.first[p.Head]) != before {
				changed = true
			}
		}
	}
	return fs
}

func isNullableBody(fs *firstSets, body []grammar.Symbol) bool {
	for _, s := range body {
		if s.IsTerminal() {
			return false
		}
		if !fs.nullable[s.Nonterm()] {
			return false
		}
	}
	return true
}

// addFirstOfBody adds every terminal that can begin body to FIRST(head).
func (fs *firstSets) addFirstOfBody(head grammar.NontermID, body []grammar.Symbol) {
	for _, s := range body {
		if s.IsTerminal() {
			fs.first[head][s.Term()] = true
			return
		}
		nt := s.Nonterm()
		for t := range fs.first[nt] {
			fs.first[head][t] = true
		}
		if !fs.nullable[nt] {
			return
		}
	}
}

// FirstOfSequence returns FIRST(body lookahead): the set of terminals that
// can begin the symbol sequence body, falling through to la if the whole
// sequence is nullable. Used by item-set closure to compute each generated
// item's lookahead set (the canonical-LR(1) "FIRST of the rest" rule).
func (fs *firstSets) FirstOfSequence(body []grammar.Symbol, la grammar.TermID) map[grammar.TermID]bool {
	out := map[grammar.TermID]bool{}
	for _, s := range body {
		if s.IsTerminal() {
			out[s.Term()] = true
			return out
		}
		nt := s.Nonterm()
		for t := range fs.first[nt] {
			out[t] = true
		}
		if !fs.nullable[nt] {
			return out
		}
	}
	out[la] = true
	return out
}
