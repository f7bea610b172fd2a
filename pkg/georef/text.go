package georef

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldName lowercases s, trims it and strips diacritics, so "Córdoba",
// " CORDOBA" and "cordoba" compare equal.
func FoldName(s string) string {
	// Transformers are stateful; build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// matchesName reports whether name contains filter, ignoring case and
// accents. An empty filter matches everything.
func matchesName(name, filter string) bool {
	f := FoldName(filter)
	if f == "" {
		return true
	}
	return strings.Contains(FoldName(name), f)
}

// sortByName orders items by name with Spanish collation.
func sortByName[T any](items []T, name func(T) string) {
	c := collate.New(language.Spanish)
	sort.SliceStable(items, func(i, j int) bool {
		return c.CompareString(name(items[i]), name(items[j])) < 0
	})
}
