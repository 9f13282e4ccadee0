package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent returns the canonical content hash: SHA-256, hex encoded.
func HashContent(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// ShortHash is the filename-sized prefix of a content hash.
func ShortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
