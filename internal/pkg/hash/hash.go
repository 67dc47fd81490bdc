// Package hash provides hashing utilities.
package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// SHA256 computes the SHA256 hash of data and returns it as a hex string.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SHA256String computes the SHA256 hash of a string.
func SHA256String(s string) string {
	return SHA256([]byte(s))
}

// SHA256Short returns the first n characters of a SHA256 hash.
func SHA256Short(data []byte, n int) string {
	h := SHA256(data)
	if n > len(h) {
		return h
	}
	return h[:n]
}

// BookID generates a deterministic UUID for a book from store and title.
// Qdrant point IDs must be UUIDs, so the hash is folded into UUID form.
func BookID(store, title string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(store+":"+title)).String()
}
