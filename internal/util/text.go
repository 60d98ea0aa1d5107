package util

import (
	"sort"
	"strings"
)

// OrderedKeys returns the keys of m sorted ascending. Used whenever iteration
// order over a map must be deterministic, such as numbering DFA/LR states.
func OrderedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ArticleFor returns "a" or "an" as appropriate for the given word, chosen by
// its first letter; only the article is returned, not the word itself. If
// capital is true the article is capitalized ("A"/"An").
func ArticleFor(s string, capital bool) string {
	article := "a"
	if capital {
		article = "A"
	}

	if s == "" {
		return article
	}

	switch strings.ToLower(s)[0] {
	case 'a', 'e', 'i', 'o', 'u':
		if capital {
			return "An"
		}
		return "an"
	}

	return article
}
