package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobStoreRoundTripCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte("content")
	uri, err := store.PutObject(context.Background(), "dumps/2026-10-16.json", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, "memory://dumps/2026-10-16.json", uri)

	payload[0] = 'C'
	rc, err := store.GetObject(context.Background(), "dumps/2026-10-16.json")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "content", string(got))
	require.Equal(t, []string{"dumps/2026-10-16.json"}, store.Paths())
}

func TestBlobStoreErrors(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	_, err := store.PutObject(context.Background(), "", "", bytes.NewReader(nil))
	require.Error(t, err)
	_, err = store.GetObject(context.Background(), "missing")
	require.Error(t, err)
}
