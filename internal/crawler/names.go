package crawler

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// titleSuffixes lists the endings dropped from a normalized title; only the
// first that matches is removed.
var titleSuffixes = []string{"dlc", "expansion"}

var titleSymbols = strings.NewReplacer("™", "", "©", "", "®", "")

// NormalizeName reduces a title to the key used for matching listings:
// composed, lower-cased, letters and digits only, with a trailing
// dlc/expansion removed. Composition keeps letters such as й and и distinct.
func NormalizeName(title string) string {
	key := alnum(strings.ToLower(norm.NFC.String(titleSymbols.Replace(title))))
	for _, suffix := range titleSuffixes {
		if trimmed, ok := strings.CutSuffix(key, suffix); ok {
			return trimmed
		}
	}
	return key
}

// SameGame reports whether two titles name the same game. Titles that
// normalize to nothing never match.
func SameGame(a, b string) bool {
	left := NormalizeName(a)
	if left == "" {
		return false
	}
	return left == NormalizeName(b)
}

// FoldKey is the similarity key for raw genre labels: letters and digits
// only, case-folded. No suffix is removed.
func FoldKey(s string) string {
	return cases.Fold().String(alnum(s))
}

// CleanTitle trims a listing title and drops trademark symbols.
func CleanTitle(title string) string {
	return strings.TrimSpace(titleSymbols.Replace(title))
}

func alnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
