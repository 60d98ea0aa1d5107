package lalr

import (
	"fmt"

	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/rosed"
	"github.com/dustin/go-humanize"
)

// ActionKind distinguishes the four things a parser can do on a given
// (state, terminal) pair.
type ActionKind int

const (
	ActionError ActionKind = iota
	ActionShift
	ActionReduce
	ActionAccept
)

// Action is one cell of the ACTION table.
type Action struct {
	Kind  ActionKind
	State int            // valid when Kind == ActionShift
	Prod  grammar.ProdID // valid when Kind == ActionReduce
}

// Table is a compiled LALR(1) parse table: states (each a merged LR(1) item
// set), an ACTION table keyed by (state, terminal-or-EOF), and a GOTO table
// keyed by (state, nonterminal) (§4.4).
type Table struct {
	States []State
	Action map[int]map[grammar.TermID]Action
	Goto   map[int]map[grammar.NontermID]int

	g *grammar.Grammar
}

// NewTable assembles a Table from already-computed action/goto data, for
// reconstructing a compiled table from a saved artifact rather than running
// Build. states may be left empty; it's only consulted by debugging
// helpers, never by the action/goto lookups themselves.
func NewTable(g *grammar.Grammar, states []State, action map[int]map[grammar.TermID]Action, gotoTable map[int]map[grammar.NontermID]int) *Table {
	return &Table{States: states, Action: action, Goto: gotoTable, g: g}
}

// Build constructs the LALR(1) table for g: canonical LR(1) collection,
// merged by core, with shift/reduce and reduce/reduce conflicts resolved by
// g's operator scope where possible (§4.4, §4.5). Unresolved conflicts are
// returned as LALR_CONFLICT diagnostics; the table still comes back usable
// (conflicts default to shift, matching yacc/bison convention) so callers
// can inspect it alongside the diagnostics.
func Build(g *grammar.Grammar) (*Table, diag.List) {
	c := newCtx(g)
	fs := computeFirst(g)
	canon := buildCanonical(c, fs)
	states := mergeByCore(c, fs, canon)

	t := &Table{
		States: states,
		Action: map[int]map[grammar.TermID]Action{},
		Goto:   map[int]map[grammar.NontermID]int{},
		g:      g,
	}
	var diags diag.List

	for i, st := range states {
		t.Action[i] = map[grammar.TermID]Action{}
		t.Goto[i] = map[grammar.NontermID]int{}

		for sym, to := range st.Trans {
			if sym.IsTerminal() {
				t.setAction(i, sym.Term(), Action{Kind: ActionShift, State: to}, g, &diags)
			} else {
				t.Goto[i][sym.Nonterm()] = to
			}
		}

		for _, it := range st.Items {
			if it.Prod == augProdID {
				p := c.Production(it.Prod)
				if it.Dot == len(p.Body) {
					t.setAction(i, EOF, Action{Kind: ActionAccept}, g, &diags)
				}
				continue
			}
			p := g.Production(it.Prod)
			if it.Dot == len(p.Body) {
				t.setAction(i, it.La, Action{Kind: ActionReduce, Prod: it.Prod}, g, &diags)
			}
		}
	}
	return t, diags
}

// setAction installs action at (state, term), resolving a collision against
// whatever is already there via operator precedence when possible, and
// recording a LALR_CONFLICT diagnostic otherwise (§4.5).
func (t *Table) setAction(state int, term grammar.TermID, action Action, g *grammar.Grammar, diags *diag.List) {
	existing, ok := t.Action[state][term]
	if !ok || existing == action {
		t.Action[state][term] = action
		return
	}

	resolved, diagMsg, sev := resolveConflict(g, term, existing, action)
	t.Action[state][term] = resolved
	if diagMsg != "" {
		name := "$"
		if term != EOF {
			name = g.Terminal(term).Human()
		}
		*diags = append(*diags, diag.New(diag.LALRConflict, sev,
			"state %d: conflict on %q: %s", state, name, diagMsg))
	}
}

// Summary returns a one-line human-readable count of the table's size, for
// a build log or a CLI's "table built" message rather than the full dump
// String returns.
func (t *Table) Summary() string {
	return fmt.Sprintf("%s states, %s terminals, %s nonterminals",
		humanize.Comma(int64(len(t.States))),
		humanize.Comma(int64(len(t.g.Terminals()))),
		humanize.Comma(int64(len(t.g.Nonterminals()))))
}

// String renders the table as a readable grid via rosed, continuing the
// teacher's approach to dumping LALR tables for debugging (§4.4).
func (t *Table) String() string {
	header := []string{"STATE"}
	for _, term := range t.g.Terminals() {
		header = append(header, term.Human())
	}
	header = append(header, "$")
	for _, nt := range t.g.Nonterminals() {
		header = append(header, nt.Human())
	}

	rows := [][]string{header}
	for i := range t.States {
		row := []string{fmt.Sprintf("%d", i)}
		for _, term := range t.g.Terminals() {
			row = append(row, actionString(t.Action[i][term.ID]))
		}
		row = append(row, actionString(t.Action[i][EOF]))
		for _, nt := range t.g.Nonterminals() {
			if to, ok := t.Goto[i][nt.ID]; ok {
				row = append(row, fmt.Sprintf("%d", to))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}

	return rosed.Edit("").InsertTableOpts(0, rows, 10, rosed.Options{
		TableHeaders:             true,
		NoTrailingLineSeparators: true,
	}).String()
}

func actionString(a Action) string {
	switch a.Kind {
	case ActionShift:
		return fmt.Sprintf("s%d", a.State)
	case ActionReduce:
		return fmt.Sprintf("r%d", a.Prod)
	case ActionAccept:
		return "acc"
	default:
		return ""
	}
}
