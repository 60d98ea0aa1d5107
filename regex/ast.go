// Package regex implements the pattern language used to describe terminal
// lexemes (§4.2): an AST of the usual regex constructs, a recursive-descent
// parser from pattern strings, and (in automaton) NFA construction from the
// AST.
package regex

import (
	"fmt"
	"strings"
)

// Node is one node of a compiled pattern's AST. All Node implementations
// are immutable and safe to share.
type Node interface {
	fmt.Stringer
	// nullable reports whether this node can match the empty string.
	nullable() bool
}

// Any matches any single rune.
type Any struct{}

func (Any) String() string { return "." }
func (Any) nullable() bool { return false }

// RuneRange is an inclusive [Lo, Hi] range of runes.
type RuneRange struct {
	Lo, Hi rune
}

func (r RuneRange) contains(c rune) bool { return c >= r.Lo && c <= r.Hi }

// Chars matches any single rune in the given set of ranges.
type Chars struct {
	Ranges []RuneRange
}

func (c Chars) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	writeRanges(&sb, c.Ranges)
	sb.WriteByte(']')
	return sb.String()
}
func (Chars) nullable() bool { return false }

// AllButChars matches any single rune NOT in the given set of ranges
// (negated character class, e.g. `[^abc]`).
type AllButChars struct {
	Ranges []RuneRange
}

func (c AllButChars) String() string {
	var sb strings.Builder
	sb.WriteString("[^")
	writeRanges(&sb, c.Ranges)
	sb.WriteByte(']')
	return sb.String()
}
func (AllButChars) nullable() bool { return false }

func writeRanges(sb *strings.Builder, ranges []RuneRange) {
	for _, r := range ranges {
		if r.Lo == r.Hi {
			sb.WriteRune(r.Lo)
		} else {
			sb.WriteRune(r.Lo)
			sb.WriteByte('-')
			sb.WriteRune(r.Hi)
		}
	}
}

// Concat matches each element of Elems in sequence.
type Concat struct {
	Elems []Node
}

func (c Concat) String() string {
	parts := make([]string, len(c.Elems))
	for i, e := range c.Elems {
		parts[i] = e.String()
	}
	return strings.Join(parts, "")
}
func (c Concat) nullable() bool {
	for _, e := range c.Elems {
		if !e.nullable() {
			return false
		}
	}
	return true
}

// Alt matches any one of Options.
type Alt struct {
	Options []Node
}

func (a Alt) String() string {
	parts := make([]string, len(a.Options))
	for i, o := range a.Options {
		parts[i] = o.String()
	}
	return "(?:" + strings.Join(parts, "|") + ")"
}
func (a Alt) nullable() bool {
	for _, o := range a.Options {
		if o.nullable() {
			return true
		}
	}
	return false
}

// Loop matches Elem repeated between Min and Max times, inclusive. Max of -1
// means unbounded (the `*`/`+`/`{m,}` forms).
type Loop struct {
	Elem     Node
	Min, Max int
}

func (l Loop) String() string {
	switch {
	case l.Min == 0 && l.Max == -1:
		return "(?:" + l.Elem.String() + ")*"
	case l.Min == 1 && l.Max == -1:
		return "(?:" + l.Elem.String() + ")+"
	case l.Min == 0 && l.Max == 1:
		return "(?:" + l.Elem.String() + ")?"
	case l.Max == -1:
		return fmt.Sprintf("(?:%s){%d,}", l.Elem.String(), l.Min)
	case l.Min == l.Max:
		return fmt.Sprintf("(?:%s){%d}", l.Elem.String(), l.Min)
	default:
		return fmt.Sprintf("(?:%s){%d,%d}", l.Elem.String(), l.Min, l.Max)
	}
}
func (l Loop) nullable() bool { return l.Min == 0 || l.Elem.nullable() }

// StringPattern is the top-level, compiled form of a pattern string: the
// public type stored on grammar.Terminal.Pattern and consumed by the NFA
// builder. It satisfies grammar.Regexer (fmt.Stringer) plus the optional
// Nullable() query the builder's analysis pass uses to reject terminals
// that could match the empty string (§4.2, §7).
type StringPattern struct {
	Source string
	Root   Node
}

func (p StringPattern) String() string { return p.Source }

// Nullable reports whether the compiled pattern can match the empty
// string.
func (p StringPattern) Nullable() bool { return p.Root.nullable() }
