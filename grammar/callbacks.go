package grammar

import "fmt"

// Position is a 1-based line/column pair attached to a matched token, for
// use by transform callbacks and diagnostics (§7's "1-based line/column
// pairs").
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// TransformFunc computes a terminal's semantic value from its matched text.
// Invoked by the LR driver on Shift (§4.8).
type TransformFunc func(pos Position, text string) (any, error)

// FuseMeta describes the production a FuseFunc is being invoked for.
type FuseMeta struct {
	Head       NontermID
	Production ProdID
}

// FuseFunc computes a production's semantic value from the values of its
// *significant* (extend-declared) body symbols, in left-to-right order.
// Invoked by the LR driver on Reduce (§4.8).
type FuseFunc func(values []any, meta FuseMeta) (any, error)
