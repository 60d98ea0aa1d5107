package regex

// namedClasses is the closed set of names recognized by `\p{Name}` and
// `\P{Name}` (§4.2's "closed named-set membership"). Unlike Unicode
// property escapes in other engines, this set is fixed and small: it
// exists to give grammar authors readable names for the handful of
// character classes every tokenizer needs, not general Unicode script
// support.
var namedClasses = map[string][]RuneRange{
	"Alpha": {{'A', 'Z'}, {'a', 'z'}},
	"Digit": {{'0', '9'}},
	"Alnum": {{'A', 'Z'}, {'a', 'z'}, {'0', '9'}},
	"Upper": {{'A', 'Z'}},
	"Lower": {{'a', 'z'}},
	"Space": {{' ', ' '}, {'\t', '\t'}, {'\n', '\n'}, {'\r', '\r'}, {'\f', '\f'}, {'\v', '\v'}},
	"Punct": {
		{'!', '/'}, {':', '@'}, {'[', '`'}, {'{', '~'},
	},
	"HexDigit": {{'0', '9'}, {'A', 'F'}, {'a', 'f'}},
}

var (
	digitRanges = namedClasses["Digit"]
	spaceRanges = namedClasses["Space"]
	wordRanges  = []RuneRange{{'A', 'Z'}, {'a', 'z'}, {'0', '9'}, {'_', '_'}}
)
