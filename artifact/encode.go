package artifact

import (
	"fmt"

	"github.com/dekarrin/farkle/automaton"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/lalr"
	"github.com/dekarrin/farkle/regex"
)

// Compiled bundles everything Encode needs: a frozen grammar, its LALR(1)
// table, and its tokenizer DFA (one DFA over the union of all terminal
// patterns, whose accept label is the winning terminal handle). Building
// these three from a grammar.Grammar is the job of the lex/parse packages'
// own compile steps, not of this package.
type Compiled struct {
	Grammar *grammar.Grammar
	Table   *lalr.Table
	DFA     *automaton.DFA[int32]
}

// ToPayload converts c into the artifact wire format. It returns an error
// only if a production's finish_constant value isn't one of the simple
// kinds an artifact can represent (bool/int/float/string/nil).
func ToPayload(c Compiled) (GrammarPayload, error) {
	g := c.Grammar
	p := GrammarPayload{
		FormatVersion: FormatVersion,
		Name:          g.Name(),
		Options:       encodeOptions(g.Options()),
		StartSymbol:   int32(g.StartSymbol()),
	}
	if nl, ok := g.NewlineTerminal(); ok {
		p.NewlineTerm = int32(nl)
		p.HasNewline = true
	}

	for _, t := range g.Terminals() {
		rec := TermRecord{
			Name:        t.Name,
			DisplayName: t.DisplayName,
			Attrs:       uint8(t.Attrs),
			SpecialName: t.SpecialName,
		}
		switch pat := t.Pattern.(type) {
		case nil:
			// noise/synthesized terminal with no explicit pattern source
		case regex.StringPattern:
			rec.PatternSource = pat.Source
		case fmt.Stringer:
			s := pat.String()
			if len(s) > 0 && s[0] == '"' {
				rec.IsLiteral = true
				rec.LiteralText = s[1 : len(s)-1]
			} else {
				rec.PatternSource = s
			}
		}
		p.Terms = append(p.Terms, rec)
	}

	for _, nt := range g.Nonterminals() {
		ids := make([]int32, len(nt.Productions))
		for i, id := range nt.Productions {
			ids[i] = int32(id)
		}
		p.Nonterms = append(p.Nonterms, NontermRecord{
			Name:          nt.Name,
			DisplayName:   nt.DisplayName,
			ProductionIDs: ids,
		})
	}

	for _, prod := range g.Productions() {
		body := make([]int32, len(prod.Body))
		for i, s := range prod.Body {
			body[i] = int32(s)
		}
		cv, err := encodeConst(prod.ConstantVal)
		if err != nil {
			return GrammarPayload{}, fmt.Errorf("artifact: production %d: %w", prod.ID, err)
		}
		p.Prods = append(p.Prods, ProdRecord{
			Head:        int32(prod.Head),
			Body:        body,
			Significant: prod.Significant,
			PrecTok:     string(prod.PrecTok),
			HasFuse:     prod.FuseFn != nil,
			Constant:    prod.Constant,
			ConstantVal: cv,
		})
	}

	for _, grp := range g.Groups() {
		nested := make([]int32, len(grp.AllowsNested))
		for i, id := range grp.AllowsNested {
			nested[i] = int32(id)
		}
		p.Groups = append(p.Groups, GroupRecord{
			StartTerm:    int32(grp.StartTerm),
			EndKind:      int32(grp.EndKind),
			EndTerm:      int32(grp.EndTerm),
			Container:    int32(grp.Container),
			Flags:        uint8(grp.Flags),
			AllowsNested: nested,
		})
	}

	if scope := g.OperatorScope(); scope != nil {
		p.ResolveRR = scope.ResolveReduceReduce
		for _, grp := range scope.Groups {
			toks := make([]string, len(grp.Tokens))
			for i, tok := range grp.Tokens {
				toks[i] = string(tok)
			}
			p.PrecGroups = append(p.PrecGroups, PrecGroupRecord{
				Assoc:  int32(grp.Assoc),
				Tokens: toks,
			})
		}
	}

	if c.DFA != nil {
		p.DFAStart = int32(c.DFA.Start)
		for _, st := range c.DFA.States {
			var rec DFAStateRecord
			rec.Accept = st.Accept
			rec.Label = st.Label
			for _, e := range st.Edges {
				rec.Edges = append(rec.Edges, DFAEdgeRecord{Lo: int32(e.Lo), Hi: int32(e.Hi), To: int32(e.To)})
			}
			p.DFAStates = append(p.DFAStates, rec)
		}
	}

	if c.Table != nil {
		p.LRStart = 0
		for i := range c.Table.States {
			var rec StateRecord
			for term, act := range c.Table.Action[i] {
				t := int32(term)
				if term == lalr.EOF {
					t = -1
				}
				rec.Actions = append(rec.Actions, ActionRecord{Term: t, Kind: int32(act.Kind), Arg: actionArg(act)})
			}
			for nt, to := range c.Table.Goto[i] {
				rec.Gotos = append(rec.Gotos, GotoRecord{Nonterm: int32(nt), To: int32(to)})
			}
			p.LRStates = append(p.LRStates, rec)
		}
	}

	return p, nil
}

func actionArg(a lalr.Action) int32 {
	switch a.Kind {
	case lalr.ActionShift:
		return int32(a.State)
	case lalr.ActionReduce:
		return int32(a.Prod)
	default:
		return 0
	}
}

func encodeOptions(o grammar.Options) OptionsRecord {
	rec := OptionsRecord{
		CaseSensitive:  o.CaseSensitive,
		AutoWhitespace: o.AutoWhitespace,
		GrammarName:    o.GrammarName,
	}
	for _, c := range o.Comments {
		rec.Comments = append(rec.Comments, CommentRecord{Kind: int32(c.Kind), Start: c.Start, End: c.End})
	}
	for _, n := range o.NoiseSymbols {
		src := ""
		if n.Pattern != nil {
			src = n.Pattern.String()
		}
		rec.NoiseSymbols = append(rec.NoiseSymbols, NoiseRecord{Name: n.Name, PatternSource: src})
	}
	return rec
}

func encodeConst(v any) (ConstValue, error) {
	switch val := v.(type) {
	case nil:
		return ConstValue{Kind: ConstNone}, nil
	case bool:
		return ConstValue{Kind: ConstBool, B: val}, nil
	case int:
		return ConstValue{Kind: ConstInt, I: int64(val)}, nil
	case int64:
		return ConstValue{Kind: ConstInt, I: val}, nil
	case float64:
		return ConstValue{Kind: ConstFloat, F: val}, nil
	case string:
		return ConstValue{Kind: ConstString, S: val}, nil
	default:
		return ConstValue{}, fmt.Errorf("constant value of type %T is not representable in an artifact", v)
	}
}
