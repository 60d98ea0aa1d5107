package lalr

import (
	"fmt"

	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/grammar"
)

// resolveConflict picks a winner between two actions that landed on the
// same (state, terminal) cell, using the grammar's operator scope when one
// is available (§4.5). diagMsg is empty when the choice was made on
// precedence grounds (not worth a diagnostic); otherwise it explains what
// default rule was applied, and sev carries the severity the caller should
// record the resulting LALR_CONFLICT at.
func resolveConflict(g *grammar.Grammar, term grammar.TermID, a, b Action) (resolved Action, diagMsg string, sev diag.Severity) {
	shift, reduce, ok := splitShiftReduce(a, b)
	if ok {
		resolved, diagMsg = resolveShiftReduce(g, term, shift, reduce)
		return resolved, diagMsg, diag.Warning
	}
	if a.Kind == ActionReduce && b.Kind == ActionReduce {
		resolved, diagMsg = resolveReduceReduce(g, a, b)
		return resolved, diagMsg, diag.Warning
	}
	if accept, reduce, ok := splitAcceptReduce(a, b); ok {
		// An ambiguous start: the grammar accepts and reduces on the same
		// lookahead, meaning the input could end here or continue. §4.4
		// step 5 makes this always an error, not a default-rule warning.
		return accept, fmt.Sprintf("accept/reduce conflict with production %d; grammar has an ambiguous start", reduce.Prod), diag.Error
	}
	// Two shifts landing on the same cell can't happen (a DFA transition is
	// a function of state+symbol). Fall back to keeping the first action
	// defensively.
	return a, fmt.Sprintf("unexpected action collision (%v vs %v); keeping the first", a, b), diag.Warning
}

func splitAcceptReduce(a, b Action) (accept, reduce Action, ok bool) {
	if a.Kind == ActionAccept && b.Kind == ActionReduce {
		return a, b, true
	}
	if b.Kind == ActionAccept && a.Kind == ActionReduce {
		return b, a, true
	}
	return Action{}, Action{}, false
}

func splitShiftReduce(a, b Action) (shift, reduce Action, ok bool) {
	if a.Kind == ActionShift && b.Kind == ActionReduce {
		return a, b, true
	}
	if b.Kind == ActionShift && a.Kind == ActionReduce {
		return b, a, true
	}
	return Action{}, Action{}, false
}

// resolveShiftReduce applies §4.4/§4.5's precedence rule: a production's
// contextual precedence token if it set one, else its rightmost terminal;
// compared against the lookahead terminal's own precedence (a terminal
// always acts as its own precedence token). Equal precedence defers to
// associativity; anything the operator scope doesn't know about defaults
// to shift (the universal yacc/bison convention) and is reported.
func resolveShiftReduce(g *grammar.Grammar, term grammar.TermID, shift, reduce Action) (Action, string) {
	scope := g.OperatorScope()
	p := g.Production(reduce.Prod)

	prodTok := p.PrecTok
	if prodTok == "" {
		if rt, ok := g.RightmostTerminal(p); ok {
			prodTok = grammar.PrecToken(g.Terminal(rt).Name)
		}
	}
	shiftTok := grammar.PrecToken(g.Terminal(term).Name)

	if scope == nil || prodTok == "" {
		return shift, "no operator precedence available; defaulting to shift"
	}

	cmp, known := scope.Compare(prodTok, shiftTok)
	if !known {
		return shift, "production has no known precedence relative to lookahead; defaulting to shift"
	}
	if cmp > 0 {
		return reduce, ""
	}
	if cmp < 0 {
		return shift, ""
	}

	assoc, _ := scope.AssociativityOf(prodTok)
	switch assoc {
	case grammar.AssocLeft:
		return reduce, ""
	case grammar.AssocRight:
		return shift, ""
	default: // AssocNonAssoc
		return Action{Kind: ActionError}, fmt.Sprintf("nonassociative operator %q used associatively; rejecting", prodTok)
	}
}

// resolveReduceReduce picks the production declared first (lowest ProdID),
// matching the universal parser-generator convention, unless the grammar's
// operator scope opted into precedence-based resolution (§4.5's
// ResolveReduceReduce flag).
func resolveReduceReduce(g *grammar.Grammar, a, b Action) (Action, string) {
	scope := g.OperatorScope()
	if scope != nil && scope.ResolveReduceReduce {
		pa, pb := g.Production(a.Prod), g.Production(b.Prod)
		ta, oka := scope.Level(pa.PrecTok)
		tb, okb := scope.Level(pb.PrecTok)
		if oka && okb {
			if ta >= tb {
				return a, ""
			}
			return b, ""
		}
	}
	if a.Prod < b.Prod {
		return a, fmt.Sprintf("reduce/reduce between productions %d and %d; keeping the earlier-declared one", a.Prod, b.Prod)
	}
	return b, fmt.Sprintf("reduce/reduce between productions %d and %d; keeping the earlier-declared one", a.Prod, b.Prod)
}
