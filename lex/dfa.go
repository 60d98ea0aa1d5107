// Package lex implements the DFA-driven tokenizer described in §4.7: it
// compiles a grammar's terminal patterns into one combined DFA, then drives
// that DFA over an input stream doing longest-match scanning, lexical group
// consumption, and newline-aware position tracking.
package lex

import (
	"fmt"
	"strconv"

	"github.com/dekarrin/farkle/automaton"
	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/regex"
)

// groupSignal labels an accept state in a group's restricted-alphabet DFA
// (§4.7 step 4): either the group's own end delimiter, or the start of one
// of the group's permitted nested groups. order is the declaration-order
// tie-break key (0 for the end delimiter, 1-based index into AllowsNested
// for a nested start), since groupSignal itself isn't ordered the way a
// plain TermID handle is.
type groupSignal struct {
	isEnd  bool
	nested grammar.GroupID
	order  int
}

// Compiled bundles the main tokenizer DFA with one restricted-alphabet DFA
// per terminal-ending lexical group, everything BuildDFA/buildGroupDFAs
// produce from a single grammar (§4.3, §4.7).
type Compiled struct {
	Main   *automaton.DFA[grammar.TermID]
	Groups map[grammar.GroupID]*automaton.DFA[groupSignal]
}

// Compile builds the full tokenizer automaton set for g.
func Compile(g *grammar.Grammar) (*Compiled, diag.List, error) {
	main, diags, err := BuildDFA(g)
	if err != nil {
		return nil, diags, err
	}
	groups, groupDiags, err := buildGroupDFAs(g)
	diags = append(diags, groupDiags...)
	if err != nil {
		return nil, diags, err
	}
	return &Compiled{Main: main, Groups: groups}, diags, nil
}

// FromCompiledMainDFA assembles a Compiled from a main DFA that was loaded
// rather than built fresh (an artifact or a legacy import): the group DFAs
// are always rebuilt from g's own Group records, since neither wire format
// persists them (see FromInt32DFA).
func FromCompiledMainDFA(g *grammar.Grammar, main *automaton.DFA[grammar.TermID]) (*Compiled, diag.List, error) {
	groups, diags, err := buildGroupDFAs(g)
	if err != nil {
		return nil, diags, err
	}
	return &Compiled{Main: main, Groups: groups}, diags, nil
}

// BuildDFA Thompson-constructs and subset-constructs one combined DFA
// recognizing every lexable terminal in g (§4.3 steps 1-2). A terminal with
// no Pattern is a pure group-container marker with no text of its own (a
// container declared as Terminal(name, nil, nil), for instance) and is
// skipped here; it's reported only as the Container of a Group once the
// tokenizer has consumed one end to end.
//
// When g.Options().PrioritiseByOrder is false, every tie resolveAcceptPriority
// had to break (two terminals whose patterns both match the same text ending
// at the same state) is reported as a DFAConflict diagnostic instead of being
// resolved silently (§4.3 step 4); the lowest-TermID terminal still wins
// either way, since a DFA state can't be left without an accept label.
func BuildDFA(g *grammar.Grammar) (*automaton.DFA[grammar.TermID], diag.List, error) {
	caseInsensitive := !g.Options().CaseSensitive

	var fragments []*automaton.NFA[grammar.TermID]
	for _, t := range g.Terminals() {
		if frag, ok := fragmentFor(t.Pattern, t.ID, caseInsensitive); ok {
			fragments = append(fragments, frag)
		}
	}
	if len(fragments) == 0 {
		return nil, nil, fmt.Errorf("lex: grammar %q declares no lexable terminal", g.Name())
	}

	merged := automaton.Union(fragments...)
	d := automaton.Subset(merged, resolveAcceptPriority)
	if err := d.Validate(); err != nil {
		return nil, nil, fmt.Errorf("lex: compiled DFA failed validation: %w", err)
	}

	var diags diag.List
	if !g.Options().PrioritiseByOrder {
		for _, c := range d.Conflicts {
			names := make([]string, len(c.Labels))
			for i, l := range c.Labels {
				names[i] = g.Terminal(l).Human()
			}
			diags = append(diags, diag.New(diag.DFAConflict, diag.Warning,
				"terminals %v match the same text with no ordering rule in effect; %q wins by lowest declaration order",
				names, g.Terminal(d.States[c.State].Label).Human()))
		}
	}
	return d, diags, nil
}

// buildGroupDFAs compiles one restricted-alphabet DFA per GroupEndsOnTerminal
// group: its end delimiter plus every nested group's start delimiter, each
// labeled so the tokenizer's group-mode loop can tell which one matched.
// GroupEndsOnEndOfLine groups get no entry; the driver handles those with a
// plain newline scan instead of a compiled pattern.
func buildGroupDFAs(g *grammar.Grammar) (map[grammar.GroupID]*automaton.DFA[groupSignal], diag.List, error) {
	caseInsensitive := !g.Options().CaseSensitive
	out := make(map[grammar.GroupID]*automaton.DFA[groupSignal])

	for _, grp := range g.Groups() {
		if grp.EndKind != grammar.GroupEndsOnTerminal {
			continue
		}
		var fragments []*automaton.NFA[groupSignal]
		endTerm := g.Terminal(grp.EndTerm)
		if frag, ok := fragmentFor(endTerm.Pattern, groupSignal{isEnd: true, order: 0}, caseInsensitive); ok {
			fragments = append(fragments, frag)
		}
		for i, nestedID := range grp.AllowsNested {
			nested := g.Group(nestedID)
			startTerm := g.Terminal(nested.StartTerm)
			sig := groupSignal{nested: nestedID, order: i + 1}
			if frag, ok := fragmentFor(startTerm.Pattern, sig, caseInsensitive); ok {
				fragments = append(fragments, frag)
			}
		}
		if len(fragments) == 0 {
			return nil, nil, fmt.Errorf("lex: group %d has no recognizable end delimiter", grp.ID)
		}
		merged := automaton.Union(fragments...)
		d := automaton.Subset(merged, resolveGroupSignal)
		if err := d.Validate(); err != nil {
			return nil, nil, fmt.Errorf("lex: group %d DFA failed validation: %w", grp.ID, err)
		}
		out[grp.ID] = d
	}
	return out, nil, nil
}

// FromInt32DFA converts a *automaton.DFA[int32] (the wire representation
// the artifact codec and the legacy importer both use for the main
// tokenizer DFA) into the grammar.TermID-labeled form Tokenizer drives.
// Group DFAs are never carried this way: buildGroupDFAs rebuilds those
// fresh from the grammar's own Group records once it's loaded, which is
// cheap and keeps the wire format from having to carry a second DFA per
// group.
func FromInt32DFA(d *automaton.DFA[int32]) *automaton.DFA[grammar.TermID] {
	out := automaton.NewDFA[grammar.TermID](d.Start)
	for _, st := range d.States {
		out.AddState(st.Accept, grammar.TermID(st.Label))
	}
	for i, st := range d.States {
		for _, e := range st.Edges {
			out.AddEdge(i, e.Lo, e.Hi, e.To)
		}
	}
	return out
}

// fragmentFor builds the NFA fragment matching pat, dispatching the same
// way artifact's encoder distinguishes a compiled regex.StringPattern from
// a quoted-literal Regexer. ok is false when pat is nil (no pattern to
// build a fragment from).
func fragmentFor[E any](pat grammar.Regexer, label E, caseInsensitive bool) (*automaton.NFA[E], bool) {
	switch p := pat.(type) {
	case nil:
		return nil, false
	case regex.StringPattern:
		return automaton.FromPatternFold(p, label, caseInsensitive), true
	default:
		text := p.String()
		if unquoted, err := strconv.Unquote(text); err == nil {
			text = unquoted
		}
		return automaton.FromLiteral(text, label, caseInsensitive), true
	}
}

// resolveGroupSignal breaks a tie between a group's end delimiter and a
// nested group's start delimiter matching the same text: the lowest order
// wins, same declaration-order rule as resolveAcceptPriority, just keyed on
// groupSignal.order since groupSignal itself has no natural ordering.
func resolveGroupSignal(labels []groupSignal) (groupSignal, bool) {
	winner := labels[0]
	for _, l := range labels[1:] {
		if l.order < winner.order {
			winner = l
		}
	}
	return winner, len(labels) > 1
}

// resolveAcceptPriority breaks a tie between labels whose patterns both
// match the same text ending at the same DFA state: the lowest-valued label
// (the one declared first) wins (§4.3 step 4). The bool flags the tie;
// BuildDFA surfaces it as a DFAConflict diagnostic only when the grammar
// didn't opt into relying on declaration order (PrioritiseByOrder false), a
// case like a keyword literal deliberately shadowing an identifier pattern.
func resolveAcceptPriority[E interface{ ~int32 }](labels []E) (E, bool) {
	winner := labels[0]
	for _, l := range labels[1:] {
		if l < winner {
			winner = l
		}
	}
	return winner, len(labels) > 1
}
