package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSameGame(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b string
		want bool
	}{
		{"punctuation and case", "The Witcher 3: Wild Hunt", "the witcher3___wildhunt", true},
		{"dlc suffix", "Foo DLC", "Foo", true},
		{"expansion suffix", "Foo: Expansion", "foo", true},
		{"trademark", "Half-Life™ 2", "Half-Life 2", true},
		{"different sequel", "Foo 2", "Foo", false},
		{"cyrillic", "Ведьмак 3: Дикая Охота", "ведьмак 3 дикая охота", true},
		{"decomposed letter", "\u041c\u043e\u0438\u0306 \u043c\u0438\u0440", "\u041c\u043e\u0439 \u043c\u0438\u0440", true},
		{"decomposed yo", "\u0415\u0308\u043b\u043a\u0430", "Ёлка", true},
		{"short i is distinct", "Бой", "Бои", false},
		{"short i in phrase is distinct", "Мой мир", "Мои мир", false},
		{"yo is distinct", "Ёлка", "Елка", false},
		{"empty never matches", "!!!", "???", false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, SameGame(tc.a, tc.b))
		})
	}
}

func TestNormalizeNameStripsSingleSuffixPass(t *testing.T) {
	t.Parallel()

	require.Equal(t, "foo", NormalizeName("Foo DLC"))
	require.Equal(t, "foo", NormalizeName("Foo Expansion"))
	require.Equal(t, "dlcfoo", NormalizeName("DLC Foo"))
}

func TestFoldKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, FoldKey("Action-RPG"), FoldKey("action rpg"))
	require.Equal(t, FoldKey("РОЛЕВАЯ ИГРА"), FoldKey("ролевая-игра"))
	require.NotEqual(t, FoldKey("Action games"), FoldKey("Action"))
}

func TestCleanTitle(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Portal 2", CleanTitle("  Portal™ 2 "))
}
