package normalize

import (
	"sort"
	"strings"
	"unicode"
)

// CompressionRule replaces two co-occurring genres with a compound genre.
type CompressionRule struct {
	First    string `json:"first"`
	Second   string `json:"second"`
	Compound string `json:"compound"`
}

// DefaultCompressionRules is applied when no rules are configured.
var DefaultCompressionRules = []CompressionRule{
	{First: "Action", Second: "Adventure", Compound: "Action-adventure"},
	{First: "Action", Second: "RPG", Compound: "Action/RPG"},
	{First: "First-person", Second: "Shooter", Compound: "FPS"},
	{First: "First-person", Second: "FPS", Compound: "FPS"},
	{First: "Shooter", Second: "FPS", Compound: "FPS"},
	{First: "Third-person", Second: "Shooter", Compound: "TPS"},
	{First: "Third-person", Second: "TPS", Compound: "TPS"},
	{First: "Shooter", Second: "TPS", Compound: "TPS"},
	{First: "Survival", Second: "Horror", Compound: "Survival horror"},
}

// Compress applies rules in order against the working set. A compound is
// visible to later rules as soon as it is added; matched inputs are removed
// after the pass unless some rule also produced them.
func Compress(genres []string, rules []CompressionRule) []string {
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		set[g] = struct{}{}
	}
	consumed := make(map[string]struct{})
	produced := make(map[string]struct{})
	for _, rule := range rules {
		_, hasFirst := set[rule.First]
		_, hasSecond := set[rule.Second]
		if !hasFirst || !hasSecond {
			continue
		}
		set[rule.Compound] = struct{}{}
		produced[rule.Compound] = struct{}{}
		consumed[rule.First] = struct{}{}
		consumed[rule.Second] = struct{}{}
	}
	for g := range consumed {
		if _, ok := produced[g]; !ok {
			delete(set, g)
		}
	}
	return sortedKeys(set)
}

// RemovePartialDuplicates drops every genre whose lower-cased text is one of
// the words of a multi-word genre in the same set.
func RemovePartialDuplicates(genres []string) []string {
	words := make(map[string]struct{})
	for _, g := range genres {
		parts := splitWords(g)
		if len(parts) < 2 {
			continue
		}
		for _, p := range parts {
			words[p] = struct{}{}
		}
	}
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		if _, ok := words[strings.ToLower(g)]; ok {
			continue
		}
		set[g] = struct{}{}
	}
	return sortedKeys(set)
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
