package artifact

// ConstKind tags which Go type a production's constant-finish value holds.
// Constant values must be one of these simple kinds to be representable in
// an artifact: a semantic callback can return anything, but finish_constant
// values are meant to be literal data, not code, so this is not a real
// restriction in practice.
type ConstKind byte

const (
	ConstNone ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstString
)

// ConstValue is the serializable form of Production.ConstantVal.
type ConstValue struct {
	Kind ConstKind
	B    bool
	I    int64
	F    float64
	S    string
}

// TermRecord is the serializable form of grammar.Terminal.
type TermRecord struct {
	Name          string
	DisplayName   string
	Attrs         uint8
	SpecialName   string
	IsLiteral     bool
	LiteralText   string // meaningful only when IsLiteral
	PatternSource string // meaningful only when !IsLiteral && pattern present
}

// NontermRecord is the serializable form of grammar.Nonterminal.
type NontermRecord struct {
	Name          string
	DisplayName   string
	ProductionIDs []int32
}

// ProdRecord is the serializable form of grammar.Production. Body is the
// production's Symbol slice, stored as raw int32s (Symbol's own packed
// encoding is already artifact-stable: non-negative terminal handles,
// negative -1-id nonterminal handles).
type ProdRecord struct {
	Head        int32
	Body        []int32
	Significant []bool
	PrecTok     string
	HasFuse     bool // true if Load's fuses[ProdID] must supply a callback
	Constant    bool
	ConstantVal ConstValue
}

// GroupRecord is the serializable form of grammar.Group.
type GroupRecord struct {
	StartTerm    int32
	EndKind      int32
	EndTerm      int32
	Container    int32
	Flags        uint8
	AllowsNested []int32
}

// CommentRecord/NoiseRecord mirror grammar.CommentSpec/NoiseSymbol.
type CommentRecord struct {
	Kind  int32
	Start string
	End   string
}

type NoiseRecord struct {
	Name          string
	PatternSource string
}

// PrecGroupRecord is the serializable form of grammar.PrecGroup.
type PrecGroupRecord struct {
	Assoc  int32
	Tokens []string
}

// OptionsRecord is the serializable form of grammar.Options.
type OptionsRecord struct {
	CaseSensitive  bool
	AutoWhitespace bool
	Comments       []CommentRecord
	NoiseSymbols   []NoiseRecord
	GrammarName    string
}

// DFAEdgeRecord/DFAStateRecord serialize automaton.DFA[int32] (the
// tokenizer DFA, whose accept label is the winning terminal handle; a
// non-accepting state has Accept false and its Label carries no meaning).
type DFAEdgeRecord struct {
	Lo, Hi int32
	To     int32
}

type DFAStateRecord struct {
	Edges  []DFAEdgeRecord
	Accept bool
	Label  int32
}

// ActionRecord/TableRecord serialize lalr.Table.
type ActionRecord struct {
	Term int32 // -1 means EOF
	Kind int32
	Arg  int32 // target state for shift, ProdID for reduce, unused for accept
}

type GotoRecord struct {
	Nonterm int32
	To      int32
}

type StateRecord struct {
	Actions []ActionRecord
	Gotos   []GotoRecord
}

// GrammarPayload is the single struct rezi encodes to bytes: everything
// needed to reconstruct a frozen Grammar, its tokenizer DFA, and its LALR
// table, short of the semantic callbacks themselves.
type GrammarPayload struct {
	FormatVersion uint16
	Name          string
	Options       OptionsRecord
	Terms         []TermRecord
	Nonterms      []NontermRecord
	Prods         []ProdRecord
	Groups        []GroupRecord
	PrecGroups    []PrecGroupRecord
	ResolveRR     bool
	StartSymbol   int32
	NewlineTerm   int32
	HasNewline    bool

	DFAStates []DFAStateRecord
	DFAStart  int32

	LRStates []StateRecord
	LRStart  int32

	HasUnknownData bool // encoded with the payload; ToPayload never sets it and FromPayload never reads it, so it is not carried into a Compiled
}
