package grammar

import (
	"io"

	"github.com/BurntSushi/toml"
)

// tomlOptions mirrors Options in a form BurntSushi/toml can unmarshal
// directly, since Options carries unexported derived state nowhere (it has
// none), but keeping a separate struct here avoids coupling the wire format
// of a config file to whatever fields Options happens to grow later.
type tomlOptions struct {
	CaseSensitive     bool              `toml:"case_sensitive"`
	AutoWhitespace    bool              `toml:"auto_whitespace"`
	PrioritiseByOrder bool              `toml:"prioritise_by_order"`
	GrammarName       string            `toml:"grammar_name"`
	Comments          []tomlCommentSpec `toml:"comments"`
}

type tomlCommentSpec struct {
	Kind  string `toml:"kind"` // "line" or "block"
	Start string `toml:"start"`
	End   string `toml:"end"`
}

// LoadOptionsTOML reads grammar-wide metadata (§4.1) from a TOML document,
// the same externalized-config idiom the teacher uses for its world and
// server settings. Noise symbols aren't representable here since their
// pattern is a grammar.Regexer, not plain data; callers add those with
// Builder.AddNoiseSymbol after loading.
func LoadOptionsTOML(r io.Reader) (Options, error) {
	raw := tomlOptions{PrioritiseByOrder: true}
	if _, err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return Options{}, err
	}

	opts := DefaultOptions()
	opts.CaseSensitive = raw.CaseSensitive
	opts.AutoWhitespace = raw.AutoWhitespace
	opts.PrioritiseByOrder = raw.PrioritiseByOrder
	opts.GrammarName = raw.GrammarName
	for _, c := range raw.Comments {
		kind := LineComment
		if c.Kind == "block" {
			kind = BlockComment
		}
		opts.Comments = append(opts.Comments, CommentSpec{Kind: kind, Start: c.Start, End: c.End})
	}
	return opts, nil
}

// ApplyOptions installs opts as the builder's grammar-wide metadata,
// replacing whatever CaseSensitive/AutoWhitespace/GrammarName/Comments
// were set before. Declared terminals and productions are unaffected.
func (b *Builder) ApplyOptions(opts Options) *Builder {
	b.opts.CaseSensitive = opts.CaseSensitive
	b.opts.AutoWhitespace = opts.AutoWhitespace
	b.opts.PrioritiseByOrder = opts.PrioritiseByOrder
	b.opts.GrammarName = opts.GrammarName
	b.opts.Comments = append([]CommentSpec(nil), opts.Comments...)
	return b
}
