package crawler

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// lookalikes maps decomposed spellings onto their precomposed letter.
var lookalikes = strings.NewReplacer(
	"\u0438\u0306", "\u0439",
	"\u0418\u0306", "\u0419",
)

// NormalizeGenre collapses known decomposed Cyrillic letters and strips any
// remaining nonspacing marks.
func NormalizeGenre(s string) string {
	s = lookalikes.Replace(s)
	out, _, err := transform.String(runes.Remove(runes.In(unicode.Mn)), s)
	if err != nil {
		return s
	}
	return out
}

// CleanGenres is applied to every parser result: trim, drop empty values,
// normalize marks, dedupe, sort. The result is never nil.
func CleanGenres(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, g := range raw {
		g = NormalizeGenre(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// SortedSet returns the unique values of in, sorted.
func SortedSet(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// EqualSets reports whether two sorted, deduplicated slices hold the same values.
func EqualSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
