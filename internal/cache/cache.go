package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the injected caching abstraction. The pipeline treats a nil
// Cache as "caching disabled" and stays fully functional without one.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the stable cache key for one (document URL, zone code) pair
func Key(url, zone string) string {
	hash := sha256.Sum256([]byte(url + "|" + zone))
	return "pluscan:v1:" + hex.EncodeToString(hash[:])
}
