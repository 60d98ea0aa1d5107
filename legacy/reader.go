package legacy

import (
	"fmt"
	"strings"

	"github.com/dekarrin/farkle/automaton"
	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/lalr"
	"github.com/dekarrin/farkle/lex"
)

// Compiled bundles the grammar, LALR table, and tokenizer automata
// reconstructed from a legacy file — the same shape artifact.Compiled
// hands the runtime, just assembled by a different front door.
type Compiled struct {
	Grammar *grammar.Grammar
	Table   *lalr.Table
	Lex     *lex.Compiled
}

// Callbacks re-attaches semantic callbacks by name/index, the same way
// artifact.Callbacks does for the binary artifact format: a legacy file
// carries no code, only the table shapes, so the caller supplies the live
// closures a loaded grammar needs (§4.6).
type Callbacks struct {
	Transforms map[string]grammar.TransformFunc
	Fuses      map[int]grammar.FuseFunc
}

// legacy action kinds, matching the GOLD LALR action type byte.
const (
	actShift byte = 1 + iota
	actReduce
	actGoto
	actAccept
)

const (
	advanceByToken byte = 0
	advanceByChar  byte = 1
)

const (
	endingClosed byte = 0
	endingOpen   byte = 1
)

// Import reads a legacy grammar table file and reconstructs a Grammar, its
// LALR(1) table, and its tokenizer automata (§6). It returns diagnostics
// rather than panicking on anything the format itself flags as malformed
// (an unresolvable group container, for instance). A non-nil error is
// returned for a file that can't be parsed as a legacy table stream at all
// (bad magic, truncated records, an unknown record tag, no parameters
// record), and also when the reconstructed grammar or DFA fails validation
// or the tokenizer automata can't be compiled from it.
func Import(data []byte, cb Callbacks) (Compiled, diag.List, error) {
	if len(data) < len(magic) {
		return Compiled{}, nil, fmt.Errorf("legacy: file too short to contain a header")
	}
	var gotMagic [8]byte
	copy(gotMagic[:], data[:8])
	if gotMagic != magic {
		return Compiled{}, nil, fmt.Errorf("legacy: bad magic; not a recognized legacy grammar table file")
	}

	r := newReader(data[len(magic):])

	var (
		params     record
		haveParams bool
		symbols    []record
		charsets   []record
		rules      []record
		groups     []record
		dfaStates  []record
		lalrStates []record
		initial    record
	)

	for {
		rec, ok, err := r.record()
		if err != nil {
			return Compiled{}, nil, err
		}
		if !ok {
			break
		}
		switch rec.tag {
		case recParameters:
			params, haveParams = rec, true
		case recCounts:
			// Informational only: every table below is collected by tag,
			// not by a declared count, so a reader tolerates the counts
			// record being stale or absent (§4.6's "readers must accept
			// extra unknown streams" spirit, applied to this format too).
		case recSymbol:
			symbols = append(symbols, rec)
		case recCharSet:
			charsets = append(charsets, rec)
		case recRule:
			rules = append(rules, rec)
		case recGroup:
			groups = append(groups, rec)
		case recDFAState:
			dfaStates = append(dfaStates, rec)
		case recLALRState:
			lalrStates = append(lalrStates, rec)
		case recInitial:
			initial = rec
		default:
			return Compiled{}, nil, fmt.Errorf("legacy: unknown record tag %q", rec.tag)
		}
	}
	if !haveParams {
		return Compiled{}, nil, fmt.Errorf("legacy: file has no parameters record")
	}

	imp := &importer{cb: cb}
	return imp.run(params, symbols, charsets, rules, groups, dfaStates, lalrStates, initial)
}

// importer carries the lookup tables the legacy indices resolve through,
// threaded across the several reconstruction passes below.
type importer struct {
	cb    Callbacks
	kinds []symKind
	names []string

	termIDs    map[int]grammar.TermID
	nontermIDs map[int]grammar.NontermID
	newlineIdx int
	hasNewline bool
}

func (imp *importer) run(params record, symbols, charsets, rules, groups, dfaStates, lalrStates []record, initial record) (Compiled, diag.List, error) {
	var diags diag.List

	b := grammar.NewBuilder()
	b.GrammarName(params.stringAt(0))
	b.CaseSensitive(params.boolAt(1))
	b.AutoWhitespace(params.boolAt(2))

	maxIdx := -1
	for _, rec := range symbols {
		if idx := int(rec.uint16At(0)); idx > maxIdx {
			maxIdx = idx
		}
	}
	imp.kinds = make([]symKind, maxIdx+1)
	imp.names = make([]string, maxIdx+1)
	imp.termIDs = make(map[int]grammar.TermID)
	imp.nontermIDs = make(map[int]grammar.NontermID)

	for _, rec := range symbols {
		idx := int(rec.uint16At(0))
		name := rec.stringAt(1)
		kind := symKind(rec.byteAt(2))
		imp.names[idx] = name
		imp.kinds[idx] = kind

		switch kind {
		case symNonterminal:
			imp.nontermIDs[idx] = b.Nonterminal(name)
		case symTerminal, symGroupStart, symGroupEnd:
			id := b.Terminal(name, nil, imp.cb.Transforms[name])
			imp.termIDs[idx] = id
			if strings.EqualFold(name, "newline") {
				b.SpecialName(id, "newline")
				imp.newlineIdx = idx
				imp.hasNewline = true
			}
		case symNoise:
			id := b.Terminal(name, nil, nil)
			b.Noise(id)
			imp.termIDs[idx] = id
		case symEndOfInput, symError:
			// No grammar-side handle: end-of-input is the runtime's own
			// sentinel, and the current model has no error-recovery
			// construct for the legacy Error kind to map onto (§9 rules
			// GLR/backtracking-style recovery out of scope).
		default:
			diags = append(diags, diag.New(diag.UnsupportedFormat, diag.Warning,
				"symbol %q has unrecognized legacy kind %d; ignoring", name, kind))
		}
	}

	for _, rec := range rules {
		ruleIdx := int(rec.uint16At(0))
		head := int(rec.uint16At(1))
		nt, ok := imp.nontermIDs[head]
		if !ok {
			diags = append(diags, diag.New(diag.UnsupportedFormat, diag.Error,
				"rule references undeclared nonterminal index %d", head))
			continue
		}
		bodyCount := int(rec.uint16At(2))
		body := make([]grammar.Symbol, 0, bodyCount)
		for i := 0; i < bodyCount; i++ {
			sIdx := int(rec.uint16At(3 + i))
			sym, ok := imp.symbolOf(sIdx)
			if !ok {
				diags = append(diags, diag.New(diag.UnsupportedFormat, diag.Error,
					"rule body references unknown symbol index %d", sIdx))
				continue
			}
			body = append(body, sym)
		}
		fuse := imp.cb.Fuses[ruleIdx]
		b.SetProductions(nt, func(ps *grammar.ProductionSet) {
			rb := ps.Rule()
			// Classic GOLD rules carry no append/extend distinction: every
			// body symbol is significant, matching the parse trees its
			// own engine built.
			for _, sym := range body {
				rb.Extend(sym)
			}
			rb.Finish(fuse)
		})
	}

	startSymIdx := int(params.uint16At(3))
	if startSymIdx >= 0 && startSymIdx < len(imp.names) {
		if _, isNT := imp.nontermIDs[startSymIdx]; isNT {
			b.Start(imp.names[startSymIdx])
		}
	}

	type pendingNest struct {
		outer    grammar.GroupID
		startIdx int
	}
	groupByStartIdx := map[int]grammar.GroupID{}
	var pending []pendingNest

	for _, rec := range groups {
		containerIdx := int(rec.uint16At(2))
		groupStartIdx := int(rec.uint16At(3))
		endIdx := int(rec.uint16At(4))
		advance := rec.byteAt(5)
		ending := rec.byteAt(6)
		nestingCount := int(rec.uint16At(7))

		containerKind := imp.safeKind(containerIdx)
		isNewlineContainer := imp.hasNewline && containerIdx == imp.newlineIdx
		if containerKind != symGroupEnd && !isNewlineContainer {
			diags = append(diags, diag.New(diag.UnsupportedFormat, diag.Error,
				"group %q has container %q, which is neither a group-end nor the newline terminal",
				imp.nameOf(groupStartIdx), imp.nameOf(containerIdx)))
			continue
		}

		startTerm, ok := imp.termIDs[groupStartIdx]
		if !ok {
			diags = append(diags, diag.New(diag.UnsupportedFormat, diag.Error,
				"group references unknown start symbol index %d", groupStartIdx))
			continue
		}
		containerTerm, ok := imp.termIDs[containerIdx]
		if !ok {
			diags = append(diags, diag.New(diag.UnsupportedFormat, diag.Error,
				"group references unknown container symbol index %d", containerIdx))
			continue
		}

		var flags grammar.GroupFlags
		if advance == advanceByChar {
			flags |= grammar.GroupAdvanceByCharacter
		}
		if ending == endingOpen {
			flags |= grammar.GroupEndsOnEndOfInput
		}

		var gid grammar.GroupID
		if containerKind == symGroupEnd {
			endTerm, ok := imp.termIDs[endIdx]
			if !ok {
				diags = append(diags, diag.New(diag.UnsupportedFormat, diag.Error,
					"group references unknown end symbol index %d", endIdx))
				continue
			}
			flags |= grammar.GroupKeepEndToken
			gid = b.BlockGroup(startTerm, endTerm, containerTerm, flags)
		} else {
			gid = b.LineGroup(startTerm, containerTerm, flags)
		}
		groupByStartIdx[groupStartIdx] = gid

		for i := 0; i < nestingCount; i++ {
			nestedIdx := int(rec.uint16At(8 + i))
			// A nested group may be declared later in the stream, so
			// resolving it to a GroupID happens in a second pass below.
			pending = append(pending, pendingNest{outer: gid, startIdx: nestedIdx})
		}
	}
	for _, p := range pending {
		if inner, ok := groupByStartIdx[p.startIdx]; ok {
			b.AllowNesting(p.outer, inner)
		} else {
			diags = append(diags, diag.New(diag.UnsupportedFormat, diag.Warning,
				"group nesting references unknown start symbol index %d", p.startIdx))
		}
	}

	g, buildDiags := b.Build()
	diags = append(diags, buildDiags...)
	if g.IsFailing {
		return Compiled{}, diags, fmt.Errorf("legacy: reconstructed grammar failed validation")
	}

	table := imp.buildTable(g, lalrStates)
	dfa, err := imp.buildDFA(charsets, dfaStates, initial)
	if err != nil {
		return Compiled{}, diags, err
	}
	var compiledLex *lex.Compiled
	if dfa != nil {
		var lexDiags diag.List
		compiledLex, lexDiags, err = lex.FromCompiledMainDFA(g, lex.FromInt32DFA(dfa))
		diags = append(diags, lexDiags...)
		if err != nil {
			return Compiled{}, diags, err
		}
	}

	return Compiled{Grammar: g, Table: table, Lex: compiledLex}, diags, nil
}

func (imp *importer) safeKind(idx int) symKind {
	if idx < 0 || idx >= len(imp.kinds) {
		return symError
	}
	return imp.kinds[idx]
}

func (imp *importer) nameOf(idx int) string {
	if idx < 0 || idx >= len(imp.names) {
		return fmt.Sprintf("#%d", idx)
	}
	return imp.names[idx]
}

func (imp *importer) symbolOf(idx int) (grammar.Symbol, bool) {
	if nt, ok := imp.nontermIDs[idx]; ok {
		return grammar.NontermSymbol(nt), true
	}
	if t, ok := imp.termIDs[idx]; ok {
		return grammar.TermSymbol(t), true
	}
	return 0, false
}

func (imp *importer) buildTable(g *grammar.Grammar, lalrStates []record) *lalr.Table {
	if len(lalrStates) == 0 {
		return nil
	}
	action := map[int]map[grammar.TermID]lalr.Action{}
	gotoTable := map[int]map[grammar.NontermID]int{}

	for _, rec := range lalrStates {
		state := int(rec.uint16At(0))
		action[state] = map[grammar.TermID]lalr.Action{}
		gotoTable[state] = map[grammar.NontermID]int{}

		actionCount := int(rec.uint16At(1))
		for i := 0; i < actionCount; i++ {
			base := 2 + i*3
			symIdx := int(rec.uint16At(base))
			actType := rec.byteAt(base + 1)
			actVal := int(rec.uint16At(base + 2))

			switch actType {
			case actShift:
				term := imp.termOrEOF(symIdx)
				action[state][term] = lalr.Action{Kind: lalr.ActionShift, State: actVal}
			case actReduce:
				term := imp.termOrEOF(symIdx)
				action[state][term] = lalr.Action{Kind: lalr.ActionReduce, Prod: grammar.ProdID(actVal)}
			case actGoto:
				if nt, ok := imp.nontermIDs[symIdx]; ok {
					gotoTable[state][nt] = actVal
				}
			case actAccept:
				action[state][lalr.EOF] = lalr.Action{Kind: lalr.ActionAccept}
			}
		}
	}
	return lalr.NewTable(g, nil, action, gotoTable)
}

func (imp *importer) termOrEOF(idx int) grammar.TermID {
	if imp.safeKind(idx) == symEndOfInput {
		return lalr.EOF
	}
	return imp.termIDs[idx]
}

func (imp *importer) buildDFA(charsets, dfaStates []record, initial record) (*automaton.DFA[int32], error) {
	if len(dfaStates) == 0 {
		return nil, nil
	}
	ranges := map[int][][2]rune{}
	for _, rec := range charsets {
		idx := int(rec.uint16At(0))
		count := int(rec.uint16At(1))
		rs := make([][2]rune, count)
		for i := 0; i < count; i++ {
			lo := rec.uint16At(2 + i*2)
			hi := rec.uint16At(3 + i*2)
			rs[i] = [2]rune{rune(lo), rune(hi)}
		}
		ranges[idx] = rs
	}

	start := int(initial.uint16At(0))
	d := automaton.NewDFA[int32](start)
	for _, rec := range dfaStates {
		accept := rec.boolAt(1)
		label := int32(-1)
		if accept {
			symIdx := int(rec.uint16At(2))
			if t, ok := imp.termIDs[symIdx]; ok {
				label = int32(t)
			} else {
				accept = false
			}
		}
		d.AddState(accept, label)
	}
	for i, rec := range dfaStates {
		edgeCount := int(rec.uint16At(3))
		for e := 0; e < edgeCount; e++ {
			base := 4 + e*2
			csIdx := int(rec.uint16At(base))
			target := int(rec.uint16At(base + 1))
			for _, rng := range ranges[csIdx] {
				d.AddEdge(i, rng[0], rng[1], target)
			}
		}
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("legacy: reconstructed DFA failed validation: %w", err)
	}
	return d, nil
}
