package lalr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/farkle/grammar"
)

// Item is an LR(1) item: a production with a dot position and a single
// lookahead terminal. The canonical collection keeps one Item per
// (production, dot, lookahead) triple; LALR construction later merges
// states whose cores (production, dot) agree, unioning their lookaheads
// (§4.4's "canonical LR(1) collection, merged by core").
type Item struct {
	Prod grammar.ProdID
	Dot  int
	La   grammar.TermID
}

// core is the (production, dot) pair ignoring lookahead, used as the merge
// key for collapsing canonical LR(1) states into LALR(1) states.
type core struct {
	Prod grammar.ProdID
	Dot  int
}

// augProdID and augHeadID are the sentinel handles of the synthetic
// "S' -> S" production and nonterminal that construction augments every
// grammar with, so that the accept condition (dot at the end of S' with
// lookahead EOF) is a single well-defined item rather than a special case
// scattered through closure/goto. Both are negative, so they can never
// collide with a real grammar.ProdID/NontermID (always >= 0).
const (
	augProdID grammar.ProdID   = -1
	augHeadID grammar.NontermID = -1
)

// ctx wraps a frozen grammar with the augmented start production, and is
// the type every closure/goto/table-construction helper in this package
// operates over. Its Production/ProductionsOf overrides are the only
// special-casing the augmented production needs; every other query falls
// through to the embedded Grammar unchanged.
type ctx struct {
	*grammar.Grammar
	augProd grammar.Production
}

func newCtx(g *grammar.Grammar) *ctx {
	return &ctx{
		Grammar: g,
		augProd: grammar.Production{
			ID:          augProdID,
			Head:        augHeadID,
			Body:        []grammar.Symbol{grammar.NontermSymbol(g.StartSymbol())},
			Significant: []bool{true},
		},
	}
}

func (c *ctx) Production(id grammar.ProdID) grammar.Production {
	if id == augProdID {
		return c.augProd
	}
	return c.Grammar.Production(id)
}

func (c *ctx) ProductionsOf(nt grammar.NontermID) []grammar.Production {
	if nt == augHeadID {
		return []grammar.Production{c.augProd}
	}
	return c.Grammar.ProductionsOf(nt)
}

// String renders an item the way `A -> α . β, a` is conventionally
// written, e.g. `expr -> expr "+" . term , $` (each body symbol is
// followed by a space, so a space also precedes the comma).
func (it Item) String(g *grammar.Grammar) string {
	if it.Prod == augProdID {
		dot := "."
		if it.Dot == 0 {
			dot = ". "
		}
		startName := g.SymbolName(grammar.NontermSymbol(g.StartSymbol()))
		if it.Dot == 0 {
			return "$start -> " + dot + startName + ", $"
		}
		return "$start -> " + startName + " " + dot + ", $"
	}
	p := g.Production(it.Prod)
	head := g.Nonterminal(p.Head).Human()
	var sb strings.Builder
	sb.WriteString(head)
	sb.WriteString(" -> ")
	for i, s := range p.Body {
		if i == it.Dot {
			sb.WriteString(". ")
		}
		sb.WriteString(g.SymbolName(s))
		sb.WriteByte(' ')
	}
	if it.Dot == len(p.Body) {
		sb.WriteString(". ")
	}
	sb.WriteString(", ")
	if it.La == EOF {
		sb.WriteString("$")
	} else {
		sb.WriteString(g.Terminal(it.La).Human())
	}
	return sb.String()
}

// ParseItem parses the textual form produced by Item.String back into an
// Item, resolving symbol names against g. This round-trip is what lets
// table dumps and diagnostics be pasted back in during debugging, the same
// convenience ictiobus gave its own LALR table format.
func ParseItem(g *grammar.Grammar, s string) (Item, error) {
	arrowIdx := strings.Index(s, "->")
	if arrowIdx < 0 {
		return Item{}, fmt.Errorf("lalr: item %q missing '->'", s)
	}
	headName := strings.TrimSpace(s[:arrowIdx])
	rest := s[arrowIdx+2:]
	commaIdx := strings.LastIndex(rest, ",")
	if commaIdx < 0 {
		return Item{}, fmt.Errorf("lalr: item %q missing lookahead", s)
	}
	bodyPart := strings.TrimSpace(rest[:commaIdx])
	laPart := strings.TrimSpace(rest[commaIdx+1:])

	var headID grammar.NontermID
	foundHead := false
	for _, nt := range g.Nonterminals() {
		if nt.Human() == headName || nt.Name == headName {
			headID = nt.ID
			foundHead = true
			break
		}
	}
	if !foundHead {
		return Item{}, fmt.Errorf("lalr: unknown nonterminal %q", headName)
	}

	tokens := strings.Fields(bodyPart)
	dot := -1
	var bodyNames []string
	for _, tok := range tokens {
		if tok == "." {
			dot = len(bodyNames)
			continue
		}
		bodyNames = append(bodyNames, tok)
	}
	if dot == -1 {
		dot = len(bodyNames)
	}

	var foundProd grammar.ProdID
	foundProdOK := false
	for _, p := range g.ProductionsOf(headID) {
		if len(p.Body) != len(bodyNames) {
			continue
		}
		match := true
		for i, sym := range p.Body {
			if g.SymbolName(sym) != bodyNames[i] {
				match = false
				break
			}
		}
		if match {
			foundProd = p.ID
			foundProdOK = true
			break
		}
	}
	if !foundProdOK {
		return Item{}, fmt.Errorf("lalr: no production %q -> %s", headName, bodyPart)
	}

	la := EOF
	if laPart != "$" {
		foundLA := false
		for _, t := range g.Terminals() {
			if t.Human() == laPart {
				la = t.ID
				foundLA = true
				break
			}
		}
		if !foundLA {
			return Item{}, fmt.Errorf("lalr: unknown lookahead terminal %q", laPart)
		}
	}

	return Item{Prod: foundProd, Dot: dot, La: la}, nil
}

// State is one state of the (merged) LALR(1) automaton: its item set and
// the transitions out of it, keyed by grammar.Symbol.
type State struct {
	Items []Item
	Trans map[grammar.Symbol]int
}

func (it Item) atDot(g *ctx) (grammar.Symbol, bool) {
	p := g.Production(it.Prod)
	if it.Dot >= len(p.Body) {
		return 0, false
	}
	return p.Body[it.Dot], true
}

// closure computes the closure of a canonical LR(1) item set.
func closure(g *ctx, fs *firstSets, items map[Item]bool) map[Item]bool {
	out := map[Item]bool{}
	for it := range items {
		out[it] = true
	}
	for changed := true; changed; {
		changed = false
		for it := range out {
			sym, ok := it.atDot(g)
			if !ok || sym.IsTerminal() {
				continue
			}
			p := g.Production(it.Prod)
			rest := append([]grammar.Symbol(nil), p.Body[it.Dot+1:]...)
			las := fs.FirstOfSequence(rest, it.La)
			for _, prod := range g.ProductionsOf(sym.Nonterm()) {
				for la := range las {
					ni := Item{Prod: prod.ID, Dot: 0, La: la}
					if !out[ni] {
						out[ni] = true
						changed = true
					}
				}
			}
		}
	}
	return out
}

// gotoSet computes GOTO(items, sym).
func gotoSet(g *ctx, fs *firstSets, items map[Item]bool, sym grammar.Symbol) map[Item]bool {
	moved := map[Item]bool{}
	for it := range items {
		s, ok := it.atDot(g)
		if !ok || s != sym {
			continue
		}
		moved[Item{Prod: it.Prod, Dot: it.Dot + 1, La: it.La}] = true
	}
	if len(moved) == 0 {
		return nil
	}
	return closure(g, fs, moved)
}

func itemSetKey(items map[Item]bool) string {
	list := make([]Item, 0, len(items))
	for it := range items {
		list = append(list, it)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Prod != list[j].Prod {
			return list[i].Prod < list[j].Prod
		}
		if list[i].Dot != list[j].Dot {
			return list[i].Dot < list[j].Dot
		}
		return list[i].La < list[j].La
	})
	var sb strings.Builder
	for _, it := range list {
		fmt.Fprintf(&sb, "%d.%d.%d;", it.Prod, it.Dot, it.La)
	}
	return sb.String()
}

func coreKey(items map[Item]bool) string {
	seen := map[core]bool{}
	list := make([]core, 0, len(items))
	for it := range items {
		c := core{Prod: it.Prod, Dot: it.Dot}
		if !seen[c] {
			seen[c] = true
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Prod != list[j].Prod {
			return list[i].Prod < list[j].Prod
		}
		return list[i].Dot < list[j].Dot
	})
	var sb strings.Builder
	for _, c := range list {
		fmt.Fprintf(&sb, "%d.%d;", c.Prod, c.Dot)
	}
	return sb.String()
}

// buildCanonical constructs the canonical LR(1) collection: one state per
// distinct item set, reachable by GOTO from the augmented start item.
func buildCanonical(g *ctx, fs *firstSets) []map[Item]bool {
	start := closure(g, fs, map[Item]bool{{Prod: augProdID, Dot: 0, La: EOF}: true})
	var states []map[Item]bool
	index := map[string]int{}
	index[itemSetKey(start)] = 0
	states = append(states, start)

	for i := 0; i < len(states); i++ {
		symbols := outgoingSymbols(g, states[i])
		for _, sym := range symbols {
			next := gotoSet(g, fs, states[i], sym)
			if next == nil {
				continue
			}
			k := itemSetKey(next)
			if _, ok := index[k]; !ok {
				index[k] = len(states)
				states = append(states, next)
			}
		}
	}
	return states
}

func outgoingSymbols(g *ctx, items map[Item]bool) []grammar.Symbol {
	seen := map[grammar.Symbol]bool{}
	var out []grammar.Symbol
	for it := range items {
		sym, ok := it.atDot(g)
		if !ok || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// mergeByCore merges canonical LR(1) states sharing the same core into
// LALR(1) states, unioning lookaheads and remapping transitions (§4.4's
// "canonical LR(1) collection merged by core" construction, kept as the
// shipped algorithm per SPEC_FULL.md §D).
func mergeByCore(g *ctx, fs *firstSets, canon []map[Item]bool) []State {
	coreToMerged := map[string]int{}
	mergedOf := make([]int, len(canon))
	var mergedSets []map[Item]bool

	for i, items := range canon {
		k := coreKey(items)
		mi, ok := coreToMerged[k]
		if !ok {
			mi = len(mergedSets)
			coreToMerged[k] = mi
			mergedSets = append(mergedSets, map[Item]bool{})
		}
		for it := range items {
			mergedSets[mi][it] = true
		}
		mergedOf[i] = mi
	}

	states := make([]State, len(mergedSets))
	for i, items := range mergedSets {
		list := make([]Item, 0, len(items))
		for it := range items {
			list = append(list, it)
		}
		sort.Slice(list, func(a, b int) bool {
			if list[a].Prod != list[b].Prod {
				return list[a].Prod < list[b].Prod
			}
			if list[a].Dot != list[b].Dot {
				return list[a].Dot < list[b].Dot
			}
			return list[a].La < list[b].La
		})
		states[i] = State{Items: list, Trans: map[grammar.Symbol]int{}}
	}

	for i, items := range canon {
		symbols := outgoingSymbols(g, items)
		for _, sym := range symbols {
			next := gotoSet(g, fs, items, sym)
			if next == nil {
				continue
			}
			// find which canonical index `next` corresponds to by core;
			// since canon was built by identity of item sets, recompute its
			// key and look up among mergedOf via the same core mapping.
			k := coreKey(next)
			mi, ok := coreToMerged[k]
			if !ok {
				continue
			}
			states[mergedOf[i]].Trans[sym] = mi
		}
	}
	return states
}
