package artifact

import (
	"fmt"

	"github.com/dekarrin/farkle/automaton"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/lalr"
	"github.com/dekarrin/farkle/regex"
)

// Callbacks re-attaches the live Go closures a loaded Grammar needs,
// indexed the same way the builder assigned handles: Transforms[termID]
// for a terminal's TransformFunc, Fuses[prodID] for a production's
// FuseFunc. An artifact never carries code, so Load always needs this from
// the caller — typically the same program that originally built the
// grammar, now just reloading its compiled tables instead of re-running
// the builder and analysis pass (§4.6).
type Callbacks struct {
	Transforms []grammar.TransformFunc
	Fuses      []grammar.FuseFunc
}

// FromPayload reconstructs a Grammar, LALR table, and tokenizer DFA from a
// decoded GrammarPayload, re-attaching cb's callbacks by handle. It returns
// an error if the payload can't be replayed back through the builder.
//
// Terminals and groups that the original build synthesized (the
// auto-whitespace terminal, comment groups, declared noise symbols) are not
// replayed directly: they're recreated by Build's own synthesizeNoise step,
// driven by the same Options the payload recorded, so the resulting
// terminal handles land in the same order they originally did.
func FromPayload(p GrammarPayload, cb Callbacks) (*grammar.Grammar, *lalr.Table, *automaton.DFA[int32], error) {
	b := grammar.NewBuilder()
	b.GrammarName(p.Name)
	b.CaseSensitive(p.Options.CaseSensitive)
	b.AutoWhitespace(p.Options.AutoWhitespace)
	for _, c := range p.Options.Comments {
		b.AddComment(grammar.CommentSpec{Kind: grammar.CommentKind(c.Kind), Start: c.Start, End: c.End})
	}
	for _, ns := range p.Options.NoiseSymbols {
		var pat grammar.Regexer
		if ns.PatternSource != "" {
			compiled, err := regex.Compile(ns.PatternSource)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("artifact: noise symbol %q: %w", ns.Name, err)
			}
			pat = compiled
		}
		b.AddNoiseSymbol(ns.Name, pat)
	}

	termIDs := make([]grammar.TermID, len(p.Terms))
	for i, t := range p.Terms {
		if grammar.TermAttrs(t.Attrs).Has(grammar.AttrNoise) {
			// Recreated by synthesizeNoise once Build runs; see doc comment.
			continue
		}
		var transform grammar.TransformFunc
		if i < len(cb.Transforms) {
			transform = cb.Transforms[i]
		}
		switch {
		case t.IsLiteral:
			termIDs[i] = b.Literal(t.LiteralText)
		case t.PatternSource != "":
			pat, err := regex.Compile(t.PatternSource)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("artifact: terminal %q: %w", t.Name, err)
			}
			termIDs[i] = b.Terminal(t.Name, pat, transform)
		default:
			termIDs[i] = b.Terminal(t.Name, nil, transform)
		}
		if t.DisplayName != "" {
			b.Rename(t.Name, t.DisplayName)
		}
		if grammar.TermAttrs(t.Attrs).Has(grammar.AttrSpecialNamed) {
			b.SpecialName(termIDs[i], t.SpecialName)
		}
		if grammar.TermAttrs(t.Attrs).Has(grammar.AttrHidden) {
			b.Hidden(termIDs[i])
		}
	}

	nontermIDs := make([]grammar.NontermID, len(p.Nonterms))
	for i, nt := range p.Nonterms {
		nontermIDs[i] = b.Nonterminal(nt.Name)
	}

	prodOfHead := map[grammar.NontermID][]ProdRecord{}
	prodIndexOfHead := map[grammar.NontermID][]int{}
	for i, pr := range p.Prods {
		head := nontermIDs[pr.Head]
		prodOfHead[head] = append(prodOfHead[head], pr)
		prodIndexOfHead[head] = append(prodIndexOfHead[head], i)
	}

	for _, nt := range nontermIDs {
		nt := nt
		recs := prodOfHead[nt]
		idxs := prodIndexOfHead[nt]
		b.SetProductions(nt, func(ps *grammar.ProductionSet) {
			for j, pr := range recs {
				rb := ps.Rule()
				for k, raw := range pr.Body {
					sym := grammar.Symbol(raw)
					if k < len(pr.Significant) && pr.Significant[k] {
						rb.Extend(sym)
					} else {
						rb.Append(sym)
					}
				}
				if pr.PrecTok != "" {
					rb.WithPrecedence(grammar.PrecToken(pr.PrecTok))
				}
				if pr.Constant {
					rb.FinishConstant(decodeConst(pr.ConstantVal))
					continue
				}
				idx := idxs[j]
				var fuse grammar.FuseFunc
				if idx < len(cb.Fuses) {
					fuse = cb.Fuses[idx]
				}
				if fuse == nil && pr.HasFuse {
					fuse = func(values []any, meta grammar.FuseMeta) (any, error) {
						return nil, fmt.Errorf("artifact: no FuseFunc supplied for production %d", meta.Production)
					}
				}
				rb.Finish(fuse)
			}
		})
	}

	if len(nontermIDs) > 0 {
		b.Start(p.Nonterms[p.StartSymbol].Name)
	}

	for _, grp := range p.Groups {
		if grp.StartTerm < int32(len(p.Terms)) && grammar.TermAttrs(p.Terms[grp.StartTerm].Attrs).Has(grammar.AttrNoise) {
			// A synthesized comment group; recreated by synthesizeNoise.
			continue
		}
		nested := make([]grammar.GroupID, len(grp.AllowsNested))
		for i, id := range grp.AllowsNested {
			nested[i] = grammar.GroupID(id)
		}
		var id grammar.GroupID
		if grammar.GroupEndKind(grp.EndKind) == grammar.GroupEndsOnEndOfLine {
			id = b.LineGroup(termIDs[grp.StartTerm], termIDs[grp.Container], grammar.GroupFlags(grp.Flags))
		} else {
			id = b.BlockGroup(termIDs[grp.StartTerm], termIDs[grp.EndTerm], termIDs[grp.Container], grammar.GroupFlags(grp.Flags))
		}
		for _, n := range nested {
			b.AllowNesting(id, n)
		}
	}

	if len(p.PrecGroups) > 0 {
		groups := make([]grammar.PrecGroup, len(p.PrecGroups))
		for i, pg := range p.PrecGroups {
			toks := make([]grammar.PrecToken, len(pg.Tokens))
			for j, t := range pg.Tokens {
				toks[j] = grammar.PrecToken(t)
			}
			groups[i] = grammar.PrecGroup{Assoc: grammar.Associativity(pg.Assoc), Tokens: toks}
		}
		b.OperatorScope(grammar.NewOperatorScope(p.ResolveRR, groups...))
	}

	g, diags := b.Build()
	if diags.HasErrors() {
		return nil, nil, nil, fmt.Errorf("artifact: reconstructed grammar failed validation: %v", diags.Errors())
	}

	table := decodeTable(p, g)
	dfa := decodeDFA(p)

	return g, table, dfa, nil
}

func decodeConst(cv ConstValue) any {
	switch cv.Kind {
	case ConstBool:
		return cv.B
	case ConstInt:
		return cv.I
	case ConstFloat:
		return cv.F
	case ConstString:
		return cv.S
	default:
		return nil
	}
}

func decodeTable(p GrammarPayload, g *grammar.Grammar) *lalr.Table {
	if len(p.LRStates) == 0 {
		return nil
	}
	action := map[int]map[grammar.TermID]lalr.Action{}
	gotoTable := map[int]map[grammar.NontermID]int{}
	states := make([]lalr.State, len(p.LRStates))

	for i, st := range p.LRStates {
		action[i] = map[grammar.TermID]lalr.Action{}
		gotoTable[i] = map[grammar.NontermID]int{}
		for _, a := range st.Actions {
			term := grammar.TermID(a.Term)
			if a.Term == -1 {
				term = lalr.EOF
			}
			act := lalr.Action{Kind: lalr.ActionKind(a.Kind)}
			switch act.Kind {
			case lalr.ActionShift:
				act.State = int(a.Arg)
			case lalr.ActionReduce:
				act.Prod = grammar.ProdID(a.Arg)
			}
			action[i][term] = act
		}
		for _, gt := range st.Gotos {
			gotoTable[i][grammar.NontermID(gt.Nonterm)] = int(gt.To)
		}
	}
	return lalr.NewTable(g, states, action, gotoTable)
}

func decodeDFA(p GrammarPayload) *automaton.DFA[int32] {
	if len(p.DFAStates) == 0 {
		return nil
	}
	d := automaton.NewDFA[int32](int(p.DFAStart))
	for _, st := range p.DFAStates {
		d.AddState(st.Accept, st.Label)
	}
	for i, st := range p.DFAStates {
		for _, e := range st.Edges {
			d.AddEdge(i, rune(e.Lo), rune(e.Hi), int(e.To))
		}
	}
	return d
}
