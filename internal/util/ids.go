package util

import (
	"crypto/sha256"
	"encoding/hex"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewID generates a random nanoid suitable for chunk and run identifiers.
func NewID() (string, error) {
	return gonanoid.New()
}

// HashText returns the sha256 hex digest of text. Document ids are derived
// from the full document text so re-imports of the same text are stable.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
