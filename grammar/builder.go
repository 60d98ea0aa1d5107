package grammar

import (
	"fmt"
	"strconv"

	"github.com/dekarrin/farkle/diag"
	"golang.org/x/text/cases"
)

// ntState is the UNSET/SET state of a nonterminal's production list (§4.9):
// a nonterminal may have SetProductions called on it at most once: a second
// call is a no-op that only emits a warning, so that composing grammar
// fragments from multiple sources can't silently clobber each other.
type ntState int

const (
	ntUnset ntState = iota
	ntSet
)

// Builder accumulates a grammar's symbol graph before it is frozen by
// Build into a Grammar. All declarations are order-independent except
// where noted; a Builder is not safe for concurrent use.
type Builder struct {
	opts Options

	termByName map[string]TermID
	litByKey   map[string]TermID
	terms      []Terminal

	ntByName map[string]NontermID
	nts      []Nonterminal
	ntState  []ntState

	prods []Production

	groups []Group

	start      NontermID
	hasStart   bool
	opScope    *OperatorScope
	diags      diag.List

	transformTable map[TermID]TransformFunc
}

// NewBuilder returns an empty Builder with default Options (§4.1).
func NewBuilder() *Builder {
	return &Builder{
		opts:       DefaultOptions(),
		termByName: map[string]TermID{},
		litByKey:   map[string]TermID{},
		ntByName:   map[string]NontermID{},
	}
}

// --- grammar-wide metadata -------------------------------------------------

// CaseSensitive sets whether literal and pattern matching is case sensitive.
// Default true.
func (b *Builder) CaseSensitive(v bool) *Builder { b.opts.CaseSensitive = v; return b }

// AutoWhitespace enables or disables the implicit whitespace-skipping noise
// terminal. Default true.
func (b *Builder) AutoWhitespace(v bool) *Builder { b.opts.AutoWhitespace = v; return b }

// PrioritiseByOrder sets whether the DFA compiler silently breaks a tie
// between two equally-long terminal matches by declaration order (true,
// the default) or reports it as a DFAConflict diagnostic (false). Either
// way the lowest-declared terminal wins; the flag only controls whether
// that choice is surfaced.
func (b *Builder) PrioritiseByOrder(v bool) *Builder { b.opts.PrioritiseByOrder = v; return b }

// AddComment declares a noise comment form (§4.1).
func (b *Builder) AddComment(spec CommentSpec) *Builder {
	b.opts.Comments = append(b.opts.Comments, spec)
	return b
}

// AddNoiseSymbol declares an additional terminal that the tokenizer consumes
// but never reports to the parser.
func (b *Builder) AddNoiseSymbol(name string, pattern Regexer) *Builder {
	b.opts.NoiseSymbols = append(b.opts.NoiseSymbols, NoiseSymbol{Name: name, Pattern: pattern})
	return b
}

// GrammarName sets the grammar's declared name, carried into artifacts and
// diagnostics.
func (b *Builder) GrammarName(name string) *Builder {
	b.opts.GrammarName = name
	return b
}

// OperatorScope installs the grammar's single global precedence/associativity
// table (§4.5). Calling it twice replaces the prior scope.
func (b *Builder) OperatorScope(scope *OperatorScope) *Builder {
	b.opScope = scope
	return b
}

// Start declares the nonterminal the grammar derives from. Must name a
// nonterminal already declared via Nonterminal.
func (b *Builder) Start(name string) *Builder {
	id, ok := b.ntByName[name]
	if !ok {
		b.diags = append(b.diags, diag.New(diag.EmptyNonterminal, diag.Error,
			"start symbol %q was never declared", name))
		return b
	}
	b.start = id
	b.hasStart = true
	return b
}

// Rename overrides the display name used for diagnostics and artifacts for
// whichever terminal or nonterminal currently has the given declared name.
// If both a terminal and nonterminal share the name, the terminal wins and a
// warning is recorded (§4.1's deterministic-pick-on-conflict rule).
func (b *Builder) Rename(name, display string) *Builder {
	if id, ok := b.termByName[name]; ok {
		if _, alsoNt := b.ntByName[name]; alsoNt {
			b.diags = append(b.diags, diag.New(diag.DuplicateSpecialName, diag.Warning,
				"name %q is ambiguous between a terminal and a nonterminal; renaming the terminal", name))
		}
		b.terms[id].DisplayName = display
		return b
	}
	if id, ok := b.ntByName[name]; ok {
		b.nts[id].DisplayName = display
		return b
	}
	b.diags = append(b.diags, diag.New(diag.EmptyNonterminal, diag.Error,
		"cannot rename %q: no such terminal or nonterminal", name))
	return b
}

// --- terminals --------------------------------------------------------------

// Terminal declares a new pattern-matched terminal. transform may be nil, in
// which case the matched text is passed through as the semantic value
// unchanged.
func (b *Builder) Terminal(name string, pattern Regexer, transform TransformFunc) TermID {
	if id, ok := b.termByName[name]; ok {
		b.diags = append(b.diags, diag.New(diag.DuplicateSpecialName, diag.Warning,
			"terminal %q already declared; keeping the first declaration", name))
		return id
	}
	id := TermID(len(b.terms))
	b.terms = append(b.terms, Terminal{
		ID:      id,
		Name:    name,
		Attrs:   AttrTerminal,
		Pattern: pattern,
	})
	b.termByName[name] = id
	b.transforms()[id] = transform
	return id
}

// transforms lazily allocates the transform table; kept as a method so the
// zero Builder doesn't need an initialized map field.
func (b *Builder) transforms() map[TermID]TransformFunc {
	if b.transformTable == nil {
		b.transformTable = map[TermID]TransformFunc{}
	}
	return b.transformTable
}

// Literal declares (or reuses) the terminal that matches exactly the given
// text. Two calls with identical text return the same handle; this is
// content-based dedup, not name-based (§4.1, §8's literal-dedup idempotence
// property).
func (b *Builder) Literal(text string) TermID {
	key := text
	if !b.opts.CaseSensitive {
		key = foldKey(text)
	}
	if id, ok := b.litByKey[key]; ok {
		return id
	}
	name := fmt.Sprintf("%q", text)
	id := TermID(len(b.terms))
	b.terms = append(b.terms, Terminal{
		ID:      id,
		Name:    name,
		Attrs:   AttrTerminal,
		Pattern: literalRegexer(text),
	})
	b.litByKey[key] = id
	b.termByName[name] = id
	return id
}

// Hidden marks a terminal (usually a literal) as hidden: it is left out of
// the expected-terminal list of a syntax error. It does not change which
// body values reach a FuseFunc; that is decided per slot by Append/Extend.
func (b *Builder) Hidden(id TermID) *Builder {
	b.terms[id].Attrs |= AttrHidden
	return b
}

// Noise marks a terminal as lexed but never passed to the parser. Builder
// callers normally get this for free via AddComment/AddNoiseSymbol, which
// synthesize their own terminal at Build time; Noise exists for callers
// (the legacy importer, notably) that already have a TermID from some
// other source and need to mark it noise directly rather than letting
// synthesizeNoise mint a new one.
func (b *Builder) Noise(id TermID) *Builder {
	b.terms[id].Attrs |= AttrNoise
	return b
}

// SpecialName tags a terminal with one of the reserved special roles (e.g.
// "newline", "whitespace") recognized by the analysis pass.
func (b *Builder) SpecialName(id TermID, special string) *Builder {
	for _, t := range b.terms {
		if t.ID != id && t.Attrs.Has(AttrSpecialNamed) && t.SpecialName == special {
			b.diags = append(b.diags, diag.New(diag.DuplicateSpecialName, diag.Error,
				"special name %q already assigned to terminal %q", special, t.Name))
			return b
		}
	}
	b.terms[id].Attrs |= AttrSpecialNamed
	b.terms[id].SpecialName = special
	if special == "newline" {
		b.terms[id].Attrs |= AttrNewline
	}
	return b
}

// --- nonterminals and productions ------------------------------------------

// Nonterminal declares (or looks up) a nonterminal by name. Its production
// list starts UNSET; call SetProductions exactly once to populate it.
func (b *Builder) Nonterminal(name string) NontermID {
	if id, ok := b.ntByName[name]; ok {
		return id
	}
	id := NontermID(len(b.nts))
	b.nts = append(b.nts, Nonterminal{ID: id, Name: name})
	b.ntState = append(b.ntState, ntUnset)
	b.ntByName[name] = id
	return id
}

// ProductionSet is the fluent collector passed to a SetProductions callback.
type ProductionSet struct {
	b    *Builder
	head NontermID
}

// SetProductions supplies the single, one-time definition of nt's
// productions (§4.9). A second call on the same nonterminal is rejected with
// a warning and the original productions are kept, matching §8's
// set-productions-twice property.
func (b *Builder) SetProductions(nt NontermID, fn func(ps *ProductionSet)) *Builder {
	if b.ntState[nt] == ntSet {
		b.diags = append(b.diags, diag.New(diag.DuplicateProduction, diag.Warning,
			"productions for %q already set; ignoring second call", b.nts[nt].Name))
		return b
	}
	ps := &ProductionSet{b: b, head: nt}
	fn(ps)
	b.ntState[nt] = ntSet
	return b
}

// ProductionBuilder accumulates one production's body before Finish or
// FinishConstant freezes it.
type ProductionBuilder struct {
	ps      *ProductionSet
	body    []Symbol
	sig     []bool
	precTok PrecToken
}

// Rule starts a new production for the nonterminal ps belongs to.
func (ps *ProductionSet) Rule() *ProductionBuilder {
	return &ProductionBuilder{ps: ps}
}

// Append adds sym to the production body without marking it significant: it
// must still be matched, but is excluded from the FuseFunc's values slice.
func (pb *ProductionBuilder) Append(sym Symbol) *ProductionBuilder {
	pb.body = append(pb.body, sym)
	pb.sig = append(pb.sig, false)
	return pb
}

// Extend adds sym to the production body and marks it significant: its
// semantic value will be passed to the FuseFunc (§4.1's append/extend
// distinction).
func (pb *ProductionBuilder) Extend(sym Symbol) *ProductionBuilder {
	pb.body = append(pb.body, sym)
	pb.sig = append(pb.sig, true)
	return pb
}

// WithPrecedence sets the production's contextual precedence token,
// overriding the default rightmost-terminal rule used during LALR table
// construction (§4.4).
func (pb *ProductionBuilder) WithPrecedence(tok PrecToken) *ProductionBuilder {
	pb.precTok = tok
	return pb
}

// Finish freezes the production with a FuseFunc computing its semantic
// value from the significant body values.
func (pb *ProductionBuilder) Finish(fuse FuseFunc) ProdID {
	return pb.finish(fuse, false, nil)
}

// FinishConstant freezes the production with a fixed semantic value,
// ignoring any body values entirely (§4.1's finish_constant).
func (pb *ProductionBuilder) FinishConstant(val any) ProdID {
	return pb.finish(nil, true, val)
}

func (pb *ProductionBuilder) finish(fuse FuseFunc, constant bool, val any) ProdID {
	b := pb.ps.b
	id := ProdID(len(b.prods))
	p := Production{
		ID:          id,
		Head:        pb.ps.head,
		Body:        pb.body,
		Significant: pb.sig,
		PrecTok:     pb.precTok,
		FuseFn:      fuse,
		Constant:    constant,
		ConstantVal: val,
	}
	b.prods = append(b.prods, p)
	b.nts[pb.ps.head].Productions = append(b.nts[pb.ps.head].Productions, id)
	return id
}

// --- lexical groups ----------------------------------------------------------

// LineGroup declares a group that starts on startTerm and runs to end of
// line, reported to the parser as container (§4.7).
func (b *Builder) LineGroup(startTerm, container TermID, flags GroupFlags) GroupID {
	id := GroupID(len(b.groups))
	b.groups = append(b.groups, Group{
		ID:        id,
		StartTerm: startTerm,
		EndKind:   GroupEndsOnEndOfLine,
		Container: container,
		Flags:     flags | GroupEndsOnEndOfInput,
	})
	b.terms[startTerm].Attrs |= AttrGroupStart
	return id
}

// BlockGroup declares a group that starts on startTerm and ends on endTerm,
// reported to the parser as container.
func (b *Builder) BlockGroup(startTerm, endTerm, container TermID, flags GroupFlags) GroupID {
	id := GroupID(len(b.groups))
	b.groups = append(b.groups, Group{
		ID:        id,
		StartTerm: startTerm,
		EndKind:   GroupEndsOnTerminal,
		EndTerm:   endTerm,
		Container: container,
		Flags:     flags,
	})
	b.terms[startTerm].Attrs |= AttrGroupStart
	b.terms[endTerm].Attrs |= AttrGroupEnd
	return id
}

// AllowNesting declares that inner may start and be fully consumed while
// outer is active, without ending outer (§4.7).
func (b *Builder) AllowNesting(outer, inner GroupID) *Builder {
	b.groups[outer].AllowsNested = append(b.groups[outer].AllowsNested, inner)
	return b
}

// GroupTransform stores a transform callback on group id's Group record
// (§4.1). The parse driver does not call it: a container token's semantic
// value always comes from the container terminal's own Transform, or is the
// captured text when that is nil.
func (b *Builder) GroupTransform(id GroupID, fn TransformFunc) *Builder {
	b.groups[id].Transform = fn
	return b
}

// --- support -----------------------------------------------------------------

// literalRegexer is the Regexer stashed on a Literal-declared terminal. It
// is a degenerate pattern: regex.Compile never sees it, since the DFA
// compiler special-cases literal terminals into direct character-chain
// construction (automaton.FromLiteral, reached through lex's fragmentFor);
// String is for diagnostics only.
type literalRegexer string

func (l literalRegexer) String() string { return strconv.Quote(string(l)) }

// caseFolder does Unicode-correct case folding for literal dedup (foldKey)
// when a grammar is case-insensitive (§9). Character-class range expansion
// does not use it: automaton.FromPatternFold folds with unicode.SimpleFold.
// A package-level Caser is safe for concurrent use.
var caseFolder = cases.Fold()

func foldKey(s string) string {
	return caseFolder.String(s)
}
