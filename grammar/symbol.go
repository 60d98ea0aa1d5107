// Package grammar holds the in-memory symbol graph for a Farkle grammar:
// terminals, nonterminals, productions, and lexical groups, plus the
// builder and analysis pass that turn a composable description into a
// frozen Grammar ready for the DFA and LALR compilers.
package grammar

import "fmt"

// TermID is the stable handle of a terminal. Handles are dense and assigned
// in declaration order starting at 0.
type TermID int32

// NontermID is the stable handle of a nonterminal, in a space disjoint from
// TermID.
type NontermID int32

// ProdID is the stable handle of a production.
type ProdID int32

// GroupID is the stable handle of a lexical group.
type GroupID int32

// Symbol is a packed handle that refers to either a terminal or a
// nonterminal. Non-negative values are terminal handles; negative values
// encode a nonterminal handle as -1-id, giving two disjoint dense spaces
// without a wrapper struct at every production-body slot.
type Symbol int32

// TermSymbol returns the Symbol referring to terminal id.
func TermSymbol(id TermID) Symbol { return Symbol(id) }

// NontermSymbol returns the Symbol referring to nonterminal id.
func NontermSymbol(id NontermID) Symbol { return Symbol(-1 - int32(id)) }

// IsTerminal reports whether s refers to a terminal.
func (s Symbol) IsTerminal() bool { return s >= 0 }

// Term returns the terminal handle s refers to. Panics if s is a
// nonterminal; callers should check IsTerminal first.
func (s Symbol) Term() TermID {
	if !s.IsTerminal() {
		panic("symbol is not a terminal")
	}
	return TermID(s)
}

// Nonterm returns the nonterminal handle s refers to. Panics if s is a
// terminal.
func (s Symbol) Nonterm() NontermID {
	if s.IsTerminal() {
		panic("symbol is not a nonterminal")
	}
	return NontermID(-1 - int32(s))
}

// TermAttrs is a bitset of terminal attributes (§3).
type TermAttrs uint8

const (
	AttrTerminal TermAttrs = 1 << iota
	AttrNoise
	AttrHidden
	AttrGroupStart
	AttrGroupEnd
	AttrNewline
	AttrSpecialNamed
)

func (a TermAttrs) Has(flag TermAttrs) bool { return a&flag != 0 }

// Terminal is an atomic lexical unit recognized by the tokenizer.
type Terminal struct {
	ID          TermID
	Name        string
	DisplayName string // override set via Rename; empty if none
	Attrs       TermAttrs
	SpecialName string // non-empty only when Attrs has AttrSpecialNamed
	Pattern     Regexer
}

// Regexer is satisfied by regex.StringPattern; declared here (rather than importing
// the regex package) to avoid a dependency cycle, since regex needn't know
// about grammar symbols.
type Regexer interface {
	fmt.Stringer
}

// Human returns the display name to use in diagnostics: the rename override
// if set, else the declared name.
func (t Terminal) Human() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Name
}

// Nonterminal is a grammar symbol derived via one or more productions.
type Nonterminal struct {
	ID          NontermID
	Name        string
	DisplayName string
	Productions []ProdID
}

func (nt Nonterminal) Human() string {
	if nt.DisplayName != "" {
		return nt.DisplayName
	}
	return nt.Name
}

// Production is a rewrite rule Head -> Body, with an optional contextual
// precedence token used to override the default shift/reduce resolution
// rule (the precedence of the production's rightmost terminal).
type Production struct {
	ID      ProdID
	Head    NontermID
	Body    []Symbol
	// Significant marks, parallel to Body, which symbols were declared via
	// extend (contribute to FuseFn's argument list) versus append
	// (present in the grammar but not passed to FuseFn).
	Significant []bool
	PrecTok     PrecToken // "" if none set
	FuseFn      FuseFunc  // nil if Constant is true
	Constant    bool      // true if declared via finish_constant
	ConstantVal any       // used only when Constant is true
}

// SignificantBody returns the subsequence of Body marked Significant, in
// order; this is the shape the FuseFunc's values slice matches at runtime.
func (p Production) SignificantBody() []Symbol {
	var out []Symbol
	for i, s := range p.Body {
		if i < len(p.Significant) && p.Significant[i] {
			out = append(out, s)
		}
	}
	return out
}

// GroupEndKind distinguishes a block group (ends on another terminal) from a
// line group (ends on end-of-line).
type GroupEndKind int

const (
	GroupEndsOnTerminal GroupEndKind = iota
	GroupEndsOnEndOfLine
)

// GroupFlags is a bitset of lexical group flags (§3).
type GroupFlags uint8

const (
	GroupAdvanceByCharacter GroupFlags = 1 << iota
	GroupKeepEndToken
	GroupEndsOnEndOfInput
)

func (f GroupFlags) Has(flag GroupFlags) bool { return f&flag != 0 }

// Group is a lexical context consumed by the tokenizer as a single
// container terminal (§3, §4.7).
type Group struct {
	ID           GroupID
	StartTerm    TermID
	EndKind      GroupEndKind
	EndTerm      TermID // meaningful only when EndKind is GroupEndsOnTerminal
	Container    TermID // terminal reported to the parser
	Flags        GroupFlags
	AllowsNested []GroupID

	// Transform is the callback stored by Builder.GroupTransform (§4.1). The
	// parse driver does not consult it; a container token's value comes
	// from the grammar's per-terminal Transform for Container.
	Transform TransformFunc
}

// PrecToken is an opaque identity used for operator-precedence tie-breaks.
// The same token may name a literal terminal (auto-mapped to the terminal
// recognizing it) or a production's contextual precedence; both draw from
// one string-keyed space so a single OperatorScope table can resolve either
// (§9).
type PrecToken string
