package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random 128-bit hex string, optionally prefixed. Used for
// token JTIs and refresh-token material, never for entity ids.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
