package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressIsIdempotent(t *testing.T) {
	t.Parallel()

	once := Compress([]string{"Action", "Adventure"}, DefaultCompressionRules)
	require.Equal(t, []string{"Action-adventure"}, once)
	require.Equal(t, once, Compress(once, DefaultCompressionRules))
}

func TestCompressChainsRules(t *testing.T) {
	t.Parallel()

	rules := []CompressionRule{
		{First: "Shooter", Second: "First-person", Compound: "FPS"},
		{First: "FPS", Second: "Multiplayer", Compound: "Arena shooter"},
	}
	got := Compress([]string{"First-person", "Multiplayer", "Shooter", "Sci-fi"}, rules)
	require.Equal(t, []string{"Arena shooter", "Sci-fi"}, got)
}

func TestCompressSharesInputsAcrossRules(t *testing.T) {
	t.Parallel()

	got := Compress([]string{"Action", "Adventure", "RPG"}, DefaultCompressionRules)
	require.Equal(t, []string{"Action-adventure", "Action/RPG"}, got)
}

func TestCompressKeepsProducedInputs(t *testing.T) {
	t.Parallel()

	got := Compress([]string{"First-person", "Shooter"}, DefaultCompressionRules)
	require.Equal(t, []string{"FPS"}, got)

	got = Compress([]string{"Third-person", "Shooter", "Horror"}, DefaultCompressionRules)
	require.Equal(t, []string{"Horror", "TPS"}, got)
}

func TestCompressWithoutRules(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"Action", "Adventure"}, Compress([]string{"Adventure", "Action", "Action"}, nil))
	require.Empty(t, Compress(nil, DefaultCompressionRules))
}

func TestRemovePartialDuplicates(t *testing.T) {
	t.Parallel()

	got := RemovePartialDuplicates([]string{"Action-adventure", "Action/RPG", "Adventure", "RPG"})
	require.Equal(t, []string{"Action-adventure", "Action/RPG"}, got)
}

func TestRemovePartialDuplicatesIgnoresSingleWords(t *testing.T) {
	t.Parallel()

	got := RemovePartialDuplicates([]string{"Survival horror", "Horror", "Survival", "Puzzle"})
	require.Equal(t, []string{"Puzzle", "Survival horror"}, got)

	got = RemovePartialDuplicates([]string{"Strategy", "RPG"})
	require.Equal(t, []string{"RPG", "Strategy"}, got)
}
