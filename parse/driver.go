// Package parse implements the LR shift/reduce loop and semantic dispatch
// described in §4.8: it drives a compiled lalr.Table over tokens pulled
// from a tokenizer, invoking each terminal's transform callback on Shift
// and each production's fuse callback on Reduce, and reports a syntax
// error's expected-token set as a natural-language list.
package parse

import (
	"fmt"

	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
	"github.com/dekarrin/farkle/internal/util"
	"github.com/dekarrin/farkle/lalr"
	"github.com/dekarrin/farkle/lex"
)

// TokenSource is what a Driver pulls tokens from. *lex.Tokenizer satisfies
// it; tests commonly supply a canned slice-backed fake instead.
type TokenSource interface {
	Next() (lex.Token, error)
	Position() grammar.Position
}

// Hook is a caller-supplied virtual-terminal source (§6), invoked before
// each LR step with the tokenizer's current position and the LR state on
// top of the parse stack. Returning ok=true injects tok in place of
// whatever the DFA tokenizer would have produced next; ok=false delegates
// to the tokenizer as usual.
type Hook func(cursor grammar.Position, lrState int) (tok lex.Token, ok bool)

// Driver runs the LALR(1) shift/reduce loop (Algorithm 4.44) over a token
// source.
type Driver struct {
	g     *grammar.Grammar
	table *lalr.Table
	src   TokenSource
	hook  Hook
	trace func(string)
}

// NewDriver returns a Driver ready to parse tokens from src against table.
func NewDriver(g *grammar.Grammar, table *lalr.Table, src TokenSource) *Driver {
	return &Driver{g: g, table: table, src: src}
}

// OnTrace installs fn to receive one line of text per state push/pop and
// action taken, mirroring the teacher's RegisterTraceListener. Pass nil to
// stop tracing.
func (d *Driver) OnTrace(fn func(string)) { d.trace = fn }

// SetHook installs the virtual-terminal hook (§6). Pass nil to remove it.
func (d *Driver) SetHook(h Hook) { d.hook = h }

func (d *Driver) notef(format string, args ...any) {
	if d.trace != nil {
		d.trace(fmt.Sprintf(format, args...))
	}
}

// isDropped reports whether tok should never reach the shift/reduce loop:
// every noise-attributed terminal (declared comments, custom noise
// symbols; auto-whitespace never reaches here at all, the tokenizer
// already swallowed it) is dropped by the driver rather than the
// tokenizer, so a syntax error can still name the noise token it choked on
// (§4.8 step 1).
func (d *Driver) isDropped(term grammar.TermID) bool {
	if term == lex.EndOfInput {
		return false
	}
	return d.g.Terminal(term).Attrs.Has(grammar.AttrNoise)
}

// pull returns the next token the shift/reduce loop should act on: the
// hook's injected token if it fires, else the next non-dropped token from
// the tokenizer.
func (d *Driver) pull(lrState int) (lex.Token, error) {
	for {
		if d.hook != nil {
			if tok, ok := d.hook(d.src.Position(), lrState); ok {
				return tok, nil
			}
		}
		tok, err := d.src.Next()
		if err != nil {
			return lex.Token{}, err
		}
		if d.isDropped(tok.Term) {
			continue
		}
		return tok, nil
	}
}

// parseFrame is one entry of the parse stack: the LR state reached and the
// semantic value attached to the symbol that led to it (the grammar
// symbol itself isn't kept; GOTO/ACTION never need it once the state is
// known).
type parseFrame struct {
	state int
	value any
}

// Parse drives the shift/reduce loop to completion, returning the single
// semantic value left on the stack by Accept, or a diag.Diagnostic error
// (SyntaxError, UnexpectedEndOfInput) if the input isn't in the grammar's
// language, or whatever error the tokenizer or a callback raised.
func (d *Driver) Parse() (any, error) {
	stack := util.Stack[parseFrame]{Of: []parseFrame{{state: 0}}}

	tok, err := d.pull(stack.Peek().state)
	if err != nil {
		return nil, err
	}
	d.notef("next token: %s", tok)

	for {
		state := stack.Peek().state
		term := tok.Term
		if term == lex.EndOfInput {
			term = lalr.EOF
		}

		action, ok := d.table.Action[state][term]
		if !ok {
			action = lalr.Action{Kind: lalr.ActionError}
		}

		switch action.Kind {
		case lalr.ActionShift:
			d.notef("shift -> state %d", action.State)
			value, err := d.shiftValue(tok)
			if err != nil {
				return nil, err
			}
			stack.Push(parseFrame{state: action.State, value: value})

			tok, err = d.pull(action.State)
			if err != nil {
				return nil, err
			}
			d.notef("next token: %s", tok)

		case lalr.ActionReduce:
			p := d.g.Production(action.Prod)
			n := len(p.Body)
			values := make([]any, 0, n)
			popped := make([]any, n)
			for i := n - 1; i >= 0; i-- {
				popped[i] = stack.Pop().value
			}
			for i, sig := range p.Significant {
				if i < len(popped) && sig {
					values = append(values, popped[i])
				}
			}
			d.notef("reduce by production %d (%s)", action.Prod, d.g.Nonterminal(p.Head).Human())

			value, err := d.fuseValue(p, values)
			if err != nil {
				return nil, err
			}

			top := stack.Peek().state
			to, ok := d.table.Goto[top][p.Head]
			if !ok {
				return nil, diag.New(diag.SyntaxError, diag.Error,
					"no GOTO from state %d on %q", top, d.g.Nonterminal(p.Head).Human())
			}
			stack.Push(parseFrame{state: to, value: value})

		case lalr.ActionAccept:
			d.notef("accept")
			return stack.Peek().value, nil

		default:
			if tok.IsEndOfInput() {
				return nil, d.unexpectedEndOfInput(state, tok.Pos)
			}
			return nil, d.syntaxError(state, tok)
		}
	}
}

// shiftValue invokes the shifted terminal's transform callback, if any; a
// terminal declared with no TransformFunc carries its matched text
// verbatim as the semantic value.
func (d *Driver) shiftValue(tok lex.Token) (any, error) {
	fn := d.g.Transform(tok.Term)
	if fn == nil {
		return tok.Lexeme, nil
	}
	v, err := fn(tok.Pos, tok.Lexeme)
	if err != nil {
		return nil, diag.New(diag.UserError, diag.Error, "%s", err.Error()).
			WithPosition(tok.Pos.Line, tok.Pos.Col)
	}
	return v, nil
}

// fuseValue invokes p's fuse callback, or returns its declared constant
// value for a production built with finish_constant.
func (d *Driver) fuseValue(p grammar.Production, values []any) (any, error) {
	if p.Constant {
		return p.ConstantVal, nil
	}
	if p.FuseFn == nil {
		return nil, nil
	}
	v, err := p.FuseFn(values, grammar.FuseMeta{Head: p.Head, Production: p.ID})
	if err != nil {
		return nil, diag.New(diag.UserError, diag.Error, "%s", err.Error())
	}
	return v, nil
}

// expectedTerminals returns the display names of every terminal with a
// defined, non-error action in state, minus HIDDEN ones, deduplicated
// (§7's "expected set excludes hidden symbols and deduplicates by display
// name").
func (d *Driver) expectedTerminals(state int) []string {
	seen := map[string]bool{}
	var names []string
	for _, t := range d.g.Terminals() {
		if t.Attrs.Has(grammar.AttrHidden) {
			continue
		}
		if a, ok := d.table.Action[state][t.ID]; !ok || a.Kind == lalr.ActionError {
			continue
		}
		name := t.Human()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	if a, ok := d.table.Action[state][lalr.EOF]; ok && a.Kind != lalr.ActionError {
		names = append(names, "end of input")
	}
	return names
}

func (d *Driver) expectedString(state int) string {
	expected := d.expectedTerminals(state)
	if len(expected) == 0 {
		return "nothing valid here"
	}
	return "expected " + util.ArticleFor(expected[0], false) + " " + util.MakeTextList(expected)
}

func (d *Driver) syntaxError(state int, tok lex.Token) error {
	human := d.g.Terminal(tok.Term).Human()
	msg := fmt.Sprintf("unexpected %s %q; %s", human, tok.Lexeme, d.expectedString(state))
	return diag.New(diag.SyntaxError, diag.Error, "%s", msg).
		WithPosition(tok.Pos.Line, tok.Pos.Col).
		WithSymbol(diag.TerminalSymbol, human)
}

func (d *Driver) unexpectedEndOfInput(state int, pos grammar.Position) error {
	msg := fmt.Sprintf("unexpected end of input; %s", d.expectedString(state))
	return diag.New(diag.UnexpectedEndOfInput, diag.Error, "%s", msg).
		WithPosition(pos.Line, pos.Col)
}
