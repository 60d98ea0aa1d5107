// Package diag defines the diagnostic records produced by every stage of the
// Farkle pipeline (§7): build-time errors collected during grammar
// analysis and compilation, and runtime diagnostics raised by the
// tokenizer and LR driver.
package diag

import "fmt"

// Code is a stable diagnostic identifier (§7).
type Code string

const (
	EmptyNonterminal     Code = "FARKLE0001"
	DuplicateProduction  Code = "FARKLE0002"
	NullableTerminal     Code = "FARKLE0003"
	LALRConflict         Code = "FARKLE0004"
	DFAConflict          Code = "FARKLE0005"
	DuplicateSpecialName Code = "FARKLE0006"
	UnsupportedFormat    Code = "FARKLE0007"
	UnreachableSymbol    Code = "FARKLE0008"

	LexicalError         Code = "FARKLE1001"
	SyntaxError          Code = "FARKLE1002"
	UnexpectedEndOfInput Code = "FARKLE1003"
	UnterminatedGroup    Code = "FARKLE1004"
	UserError            Code = "FARKLE1005"
)

// Severity distinguishes a fatal problem from an advisory one (§7).
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "ERROR"
	}
	return "WARNING"
}

// Position is a 1-based line/column source location.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// SymbolKind distinguishes what kind of grammar entity a Diagnostic's
// optional SymbolRef names.
type SymbolKind int

const (
	NoSymbol SymbolKind = iota
	TerminalSymbol
	NonterminalSymbol
	ProductionSymbol
	GroupSymbol
)

// Diagnostic is a single problem report produced by the builder, a
// compiler, or the runtime (§7).
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string

	HasPosition bool
	Position    Position

	SymbolKind SymbolKind
	SymbolName string
}

// Error satisfies the error interface so runtime diagnostics (which
// terminate a parse) can be returned and wrapped like any other error,
// per §7's "runtime diagnostics terminate the parse with a structured
// error result".
func (d Diagnostic) Error() string {
	if d.HasPosition {
		return fmt.Sprintf("%s: %s (%s)", d.Code, d.Message, d.Position)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// New builds a plain diagnostic with no position or symbol reference.
func New(code Code, sev Severity, msg string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Severity: sev, Message: fmt.Sprintf(msg, args...)}
}

// WithPosition returns a copy of d carrying the given source position.
func (d Diagnostic) WithPosition(line, col int) Diagnostic {
	d.HasPosition = true
	d.Position = Position{Line: line, Col: col}
	return d
}

// WithSymbol returns a copy of d referencing the given grammar entity.
func (d Diagnostic) WithSymbol(kind SymbolKind, name string) Diagnostic {
	d.SymbolKind = kind
	d.SymbolName = name
	return d
}

// List is a collection of diagnostics with convenience queries, mirroring
// the builder's "collect, don't throw" propagation policy (§7).
type List []Diagnostic

// HasErrors reports whether any diagnostic in the list is an Error.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the Error-severity diagnostics.
func (l List) Errors() List {
	var out List
	for _, d := range l {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only the Warning-severity diagnostics.
func (l List) Warnings() List {
	var out List
	for _, d := range l {
		if d.Severity == Warning {
			out = append(out, d)
		}
	}
	return out
}
