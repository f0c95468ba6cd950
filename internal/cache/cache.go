package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores opaque byte values under string keys with per-entry TTLs.
// Implementations are safe for concurrent use.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from arbitrary text, typically a claim.
// Hashing keeps keys filesystem-safe for the disk layer.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "claimlens:v1:" + hex.EncodeToString(sum[:])
}
