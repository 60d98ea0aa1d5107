package grammar

import (
	"github.com/dekarrin/farkle/diag"
	"github.com/dekarrin/farkle/internal/util"
	"github.com/dekarrin/farkle/regex"
)

// Build runs the analysis pass (§5) over the Builder's accumulated
// declarations and returns a frozen Grammar plus any diagnostics collected
// along the way. The Grammar's IsFailing flag is set if any diagnostic is an
// Error; callers must not hand a failing Grammar to a compiler stage.
//
// The pass, in order:
//  1. synthesizes the auto-whitespace noise terminal and any declared
//     comment/noise terminals that weren't already declared explicitly,
//  2. DFS-freezes the reachable symbol graph starting from the start
//     nonterminal, warning about unreached terminals/nonterminals,
//  3. reports every nonterminal that was never given productions,
//  4. checks for duplicate production bodies under one head and for
//     nullable terminals,
//  5. assembles the frozen Grammar, carrying the operator scope (if any)
//     over unchanged.
//
// Literal dedup and special-name collisions are not part of this pass;
// Literal and SpecialName handle them as each declaration is made.
func (b *Builder) Build() (*Grammar, diag.List) {
	diags := append(diag.List{}, b.diags...)

	if !b.hasStart {
		diags = append(diags, diag.New(diag.EmptyNonterminal, diag.Error,
			"grammar has no start symbol"))
	}

	b.synthesizeNoise()

	reachedNT := util.NewKeySet[NontermID]()
	reachedT := util.NewKeySet[TermID]()
	if b.hasStart {
		b.freeze(b.start, reachedNT, reachedT)
	}

	for i, nt := range b.nts {
		if b.ntState[i] != ntSet {
			diags = append(diags, diag.New(diag.EmptyNonterminal, diag.Error,
				"nonterminal %q was declared but never given productions", nt.Name).
				WithSymbol(diag.NonterminalSymbol, nt.Name))
			continue
		}
		if !reachedNT.Has(NontermID(i)) {
			diags = append(diags, diag.New(diag.UnreachableSymbol, diag.Warning,
				"nonterminal %q is unreachable from the start symbol", nt.Name).
				WithSymbol(diag.NonterminalSymbol, nt.Name))
		}
	}
	for i, t := range b.terms {
		if !reachedT.Has(TermID(i)) && !t.Attrs.Has(AttrNoise) {
			diags = append(diags, diag.New(diag.UnreachableSymbol, diag.Warning,
				"terminal %q is unreachable from the start symbol", t.Name).
				WithSymbol(diag.TerminalSymbol, t.Name))
		}
	}

	diags = append(diags, b.checkDuplicateProductions()...)
	diags = append(diags, b.checkNullableTerminals()...)

	g := &Grammar{
		name:       b.opts.GrammarName,
		opts:       b.opts,
		terms:      b.terms,
		nts:        b.nts,
		prods:      b.prods,
		groups:     b.groups,
		start:      b.start,
		opScope:    b.opScope,
		transforms: b.transformTable,
		IsFailing:  diags.HasErrors(),
	}
	for _, t := range b.terms {
		if t.Attrs.Has(AttrNewline) {
			g.newlineTerm = t.ID
			g.hasNewline = true
			break
		}
	}
	return g, diags
}

// synthesizeNoise materializes the implicit whitespace terminal (when
// AutoWhitespace is set) and the comment/noise terminals declared via
// Options, giving each a real TermID and AttrNoise so the tokenizer can
// recognize and discard them uniformly (§4.1, §4.7).
func (b *Builder) synthesizeNoise() {
	if b.opts.AutoWhitespace {
		if _, ok := b.termByName["$whitespace"]; !ok {
			// "\s minus newline" when the grammar declares a newline
			// terminal (SpecialName "newline"): newline then stays
			// significant, so the synthesized pattern leaves out \r and \n.
			// Without one, line breaks are whitespace like any other.
			pattern := `[ \t\r\n\f\v]+`
			for _, t := range b.terms {
				if t.Attrs.Has(AttrNewline) {
					pattern = `[ \t\f\v]+`
					break
				}
			}
			id := TermID(len(b.terms))
			b.terms = append(b.terms, Terminal{
				ID:      id,
				Name:    "$whitespace",
				Attrs:   AttrTerminal | AttrNoise,
				Pattern: regex.MustCompile(pattern),
			})
			b.termByName["$whitespace"] = id
		}
	}
	for _, cs := range b.opts.Comments {
		name := "$comment_line"
		if cs.Kind == BlockComment {
			name = "$comment_block"
		}
		if _, ok := b.termByName[name]; ok {
			continue
		}
		id := TermID(len(b.terms))
		b.terms = append(b.terms, Terminal{
			ID:      id,
			Name:    name,
			Attrs:   AttrTerminal | AttrNoise,
			Pattern: literalRegexer(cs.Start),
		})
		b.termByName[name] = id
		if cs.Kind == BlockComment {
			endID := TermID(len(b.terms))
			b.terms = append(b.terms, Terminal{
				ID:      endID,
				Name:    name + "_end",
				Attrs:   AttrTerminal | AttrNoise,
				Pattern: literalRegexer(cs.End),
			})
			b.termByName[name+"_end"] = endID
			b.BlockGroup(id, endID, id, 0)
		} else {
			b.LineGroup(id, id, 0)
		}
	}
	for _, ns := range b.opts.NoiseSymbols {
		if _, ok := b.termByName[ns.Name]; ok {
			continue
		}
		id := TermID(len(b.terms))
		b.terms = append(b.terms, Terminal{
			ID:      id,
			Name:    ns.Name,
			Attrs:   AttrTerminal | AttrNoise,
			Pattern: ns.Pattern,
		})
		b.termByName[ns.Name] = id
	}
}

// freeze performs the reachability DFS from nt, marking every terminal and
// nonterminal transitively used in its productions. Recursion follows
// production bodies in declaration order, matching the traversal order
// ictiobus's grammar validation used for its own reachability check.
func (b *Builder) freeze(nt NontermID, reachedNT util.ISet[NontermID], reachedT util.ISet[TermID]) {
	if reachedNT.Has(nt) {
		return
	}
	reachedNT.Add(nt)
	for _, pid := range b.nts[nt].Productions {
		p := b.prods[pid]
		for _, sym := range p.Body {
			if sym.IsTerminal() {
				reachedT.Add(sym.Term())
			} else {
				b.freeze(sym.Nonterm(), reachedNT, reachedT)
			}
		}
	}
}

// checkDuplicateProductions flags two productions under the same head with
// identical bodies, which are always redundant (one can never be selected
// over the other).
func (b *Builder) checkDuplicateProductions() diag.List {
	var out diag.List
	type key struct {
		head NontermID
		body string
	}
	seen := map[key]bool{}
	for _, p := range b.prods {
		k := key{head: p.Head, body: bodyKey(p.Body)}
		if seen[k] {
			out = append(out, diag.New(diag.DuplicateProduction, diag.Error,
				"nonterminal %q has a duplicate production", b.nts[p.Head].Name).
				WithSymbol(diag.ProductionSymbol, b.nts[p.Head].Name))
			continue
		}
		seen[k] = true
	}
	return out
}

func bodyKey(body []Symbol) string {
	buf := make([]byte, 0, len(body)*5)
	for _, s := range body {
		buf = append(buf, byte(s), byte(s>>8), byte(s>>16), byte(s>>24), ',')
	}
	return string(buf)
}

// checkNullableTerminals flags a terminal whose pattern can match the empty
// string, which would let the tokenizer loop forever without consuming
// input (§4.2, §7).
func (b *Builder) checkNullableTerminals() diag.List {
	var out diag.List
	for _, t := range b.terms {
		if n, ok := t.Pattern.(interface{ Nullable() bool }); ok && n.Nullable() {
			out = append(out, diag.New(diag.NullableTerminal, diag.Error,
				"terminal %q can match the empty string", t.Name).
				WithSymbol(diag.TerminalSymbol, t.Name))
		}
	}
	return out
}
