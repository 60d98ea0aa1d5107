package automaton

import (
	"unicode"

	"github.com/dekarrin/farkle/regex"
)

// FromPattern Thompson-constructs an NFA fragment for pat and marks its
// single accept state with label, returning the NFA containing just that
// fragment. Callers building a tokenizer DFA across many terminals use
// Union to merge several of these into one NFA before subset construction
// (§4.3 step 1-2).
func FromPattern[E any](pat regex.StringPattern, label E) *NFA[E] {
	return FromPatternFold(pat, label, false)
}

// FromPatternFold is FromPattern with case-insensitive expansion of
// character-class ranges (§9): when caseInsensitive is true, every rune
// range in a Chars/AllButChars node also matches that rune's other-case
// partners, found via unicode.SimpleFold the same way a case-insensitive
// regex engine expands `[a-z]` to also accept `A-Z`. This is a per-rune
// range expansion, distinct from grammar's own literal-text case fold
// (which uses golang.org/x/text/cases.Fold on whole strings, not ranges).
func FromPatternFold[E any](pat regex.StringPattern, label E, caseInsensitive bool) *NFA[E] {
	n := &NFA[E]{}
	start := n.AddState()
	n.Start = start
	end := buildNode(n, start, pat.Root, caseInsensitive)
	n.MarkAccept(end, label)
	return n
}

// FromLiteral Thompson-constructs an NFA fragment matching the exact text s
// and nothing else, for terminals declared via a literal string rather than
// a regex.StringPattern (§4.1's Literal terminals, and the delimiter text of
// a synthesized comment group). When caseInsensitive is true each rune's
// other-case partners are accepted in its place, the same as FromPatternFold
// does for a compiled pattern's character classes.
func FromLiteral[E any](s string, label E, caseInsensitive bool) *NFA[E] {
	n := &NFA[E]{}
	cur := n.AddState()
	n.Start = cur
	for _, r := range s {
		to := n.AddState()
		ranges := []regex.RuneRange{{Lo: r, Hi: r}}
		if caseInsensitive {
			ranges = foldRanges(ranges)
		}
		for _, rr := range ranges {
			n.AddRange(cur, to, rr.Lo, rr.Hi)
		}
		cur = to
	}
	n.MarkAccept(cur, label)
	return n
}

// foldRanges returns ranges plus, for each range, the other-case partner of
// every rune in it. Only used for bounded classes (never Any/AllButChars's
// full complement space, which would be prohibitively large to enumerate
// rune-by-rune).
func foldRanges(ranges []regex.RuneRange) []regex.RuneRange {
	out := append([]regex.RuneRange(nil), ranges...)
	for _, r := range ranges {
		for c := r.Lo; c <= r.Hi; c++ {
			for p := unicode.SimpleFold(c); p != c; p = unicode.SimpleFold(p) {
				out = append(out, regex.RuneRange{Lo: p, Hi: p})
			}
		}
	}
	return out
}

// Union merges several single-pattern NFAs (as returned by FromPattern)
// into one NFA whose start state epsilon-branches to each original start,
// preserving every fragment's own accept label. This is how the tokenizer
// builds one DFA recognizing the union of all of a grammar's terminal
// patterns at once (§4.3 step 1), rather than running one DFA per
// terminal and racing them.
func Union[E any](fragments ...*NFA[E]) *NFA[E] {
	n := &NFA[E]{}
	n.Start = n.AddState()
	for _, f := range fragments {
		offset := len(n.States)
		for _, st := range f.States {
			idx := n.AddState()
			n.States[idx].Accept = st.Accept
			n.States[idx].Label = st.Label
			for _, e := range st.Edges {
				n.States[idx].Edges = append(n.States[idx].Edges, edge{Lo: e.Lo, Hi: e.Hi, To: e.To + offset})
			}
		}
		n.AddEpsilon(n.Start, f.Start+offset)
	}
	return n
}

// buildNode extends n with a fragment recognizing node, wiring it in from
// `from`, and returns the index of the fragment's single exit state (not
// yet marked accepting).
func buildNode[E any](n *NFA[E], from int, node regex.Node, caseInsensitive bool) int {
	switch v := node.(type) {
	case regex.Any:
		to := n.AddState()
		n.AddRange(from, to, 0, MaxRune)
		return to
	case regex.Chars:
		to := n.AddState()
		ranges := v.Ranges
		if caseInsensitive {
			ranges = foldRanges(ranges)
		}
		for _, r := range ranges {
			n.AddRange(from, to, r.Lo, r.Hi)
		}
		return to
	case regex.AllButChars:
		to := n.AddState()
		excluded := v.Ranges
		if caseInsensitive {
			excluded = foldRanges(excluded)
		}
		for _, r := range complement(excluded) {
			n.AddRange(from, to, r.Lo, r.Hi)
		}
		return to
	case regex.Concat:
		cur := from
		if len(v.Elems) == 0 {
			to := n.AddState()
			n.AddEpsilon(cur, to)
			return to
		}
		for _, e := range v.Elems {
			cur = buildNode(n, cur, e, caseInsensitive)
		}
		return cur
	case regex.Alt:
		end := n.AddState()
		for _, opt := range v.Options {
			branchStart := n.AddState()
			n.AddEpsilon(from, branchStart)
			branchEnd := buildNode(n, branchStart, opt, caseInsensitive)
			n.AddEpsilon(branchEnd, end)
		}
		return end
	case regex.Loop:
		return buildLoop(n, from, v, caseInsensitive)
	default:
		panic("automaton: unknown regex node type")
	}
}

// buildLoop handles Loop{Min,Max} by composing mandatory repetitions with
// either a star tail (Max == -1) or a chain of optional repetitions
// (bounded Max), rather than special-casing `*`/`+`/`?` separately from
// `{m,n}` — they're all the same construction at different (Min, Max).
func buildLoop[E any](n *NFA[E], from int, l regex.Loop, caseInsensitive bool) int {
	cur := from
	for i := 0; i < l.Min; i++ {
		cur = buildNode(n, cur, l.Elem, caseInsensitive)
	}
	switch {
	case l.Max == -1:
		// zero-or-more of the remainder, Kleene-star style.
		loopStart := n.AddState()
		n.AddEpsilon(cur, loopStart)
		end := n.AddState()
		n.AddEpsilon(loopStart, end) // zero more iterations
		bodyEnd := buildNode(n, loopStart, l.Elem, caseInsensitive)
		n.AddEpsilon(bodyEnd, loopStart)
		return end
	case l.Max > l.Min:
		end := n.AddState()
		n.AddEpsilon(cur, end)
		for i := l.Min; i < l.Max; i++ {
			next := buildNode(n, cur, l.Elem, caseInsensitive)
			n.AddEpsilon(next, end)
			cur = next
		}
		return end
	default:
		return cur
	}
}

// complement returns the inclusive ranges covering [0, MaxRune] not covered
// by ranges, after sorting and merging overlaps.
func complement(ranges []regex.RuneRange) []regex.RuneRange {
	if len(ranges) == 0 {
		return []regex.RuneRange{{0, MaxRune}}
	}
	sorted := append([]regex.RuneRange(nil), ranges...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1].Lo > sorted[j].Lo; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	merged := sorted[:1]
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		merged = append(merged, r)
	}
	var out []regex.RuneRange
	cur := rune(0)
	for _, r := range merged {
		if r.Lo > cur {
			out = append(out, regex.RuneRange{Lo: cur, Hi: r.Lo - 1})
		}
		if r.Hi+1 > cur {
			cur = r.Hi + 1
		}
	}
	if cur <= MaxRune {
		out = append(out, regex.RuneRange{Lo: cur, Hi: MaxRune})
	}
	return out
}
