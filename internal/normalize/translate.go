package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

// TranslationsFile is the artifact holding the raw -> canonical mapping.
const TranslationsFile = "genre_translate.json"

// Translation is the value stored for one raw genre label. In JSON it is
// null (unresolved), a string (one canonical genre) or a list of strings.
// Any other shape is kept verbatim and reported as unsupported.
type Translation struct {
	names  []string
	single bool
	raw    json.RawMessage
}

// Unresolved is a translation waiting for an operator.
func Unresolved() Translation {
	return Translation{}
}

// Canonical maps a label onto one canonical genre.
func Canonical(name string) Translation {
	return Translation{names: []string{name}, single: true}
}

// CanonicalList maps a label onto several canonical genres.
func CanonicalList(names ...string) Translation {
	return Translation{names: append([]string{}, names...)}
}

// Resolved reports whether the translation carries canonical names.
func (t Translation) Resolved() bool {
	return t.raw == nil && t.names != nil
}

// Names returns the canonical genres, nil for an unresolved value, or
// crawler.ErrUnsupportedTranslation.
func (t Translation) Names() ([]string, error) {
	if t.raw != nil {
		return nil, fmt.Errorf("%w: %s", crawler.ErrUnsupportedTranslation, string(t.raw))
	}
	if len(t.names) == 0 {
		return nil, nil
	}
	return append([]string(nil), t.names...), nil
}

// MarshalJSON implements json.Marshaler.
func (t Translation) MarshalJSON() ([]byte, error) {
	switch {
	case t.raw != nil:
		return t.raw, nil
	case t.names == nil:
		return []byte("null"), nil
	case t.single && len(t.names) == 1:
		return json.Marshal(t.names[0])
	default:
		return json.Marshal(t.names)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Translation) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*t = Translation{}
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var one string
	if err := json.Unmarshal(trimmed, &one); err == nil {
		*t = Canonical(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(trimmed, &many); err == nil {
		*t = CanonicalList(many...)
		return nil
	}
	t.raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

// Translations is the full raw -> canonical table. Keys are never removed.
type Translations map[string]Translation

// Unresolved lists the keys still waiting for a value, sorted.
func (t Translations) Unresolved() []string {
	var out []string
	for k, v := range t {
		if v.raw == nil && v.names == nil {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Similar finds a resolved translation whose key folds to the same
// similarity key as label.
func (t Translations) Similar(label string) (Translation, bool) {
	key := crawler.FoldKey(label)
	if key == "" {
		return Translation{}, false
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := t[k]
		if v.Resolved() && crawler.FoldKey(k) == key {
			return v, true
		}
	}
	return Translation{}, false
}

// Merge fills unresolved keys of t from source. Keys absent from t are not
// added. It returns the keys that were filled, sorted.
func (t Translations) Merge(source Translations) []string {
	var filled []string
	for k, v := range t {
		if v.Resolved() || v.raw != nil {
			continue
		}
		if candidate, ok := source[k]; ok && candidate.Resolved() {
			t[k] = candidate
			filled = append(filled, k)
		}
	}
	sort.Strings(filled)
	return filled
}
