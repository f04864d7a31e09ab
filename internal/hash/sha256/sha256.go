// Package sha256 fingerprints artifact payloads.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher digests artifact content with SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Sum returns the hex digest of data.
func (h *Hasher) Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Same reports whether a and b have the same digest. A nil slice never
// matches, so a missing artifact always counts as changed.
func (h *Hasher) Same(a, b []byte) bool {
	if a == nil || b == nil {
		return false
	}
	return h.Sum(a) == h.Sum(b)
}
