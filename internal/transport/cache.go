package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of query results kept when the caller does
// not choose a size.
const DefaultCacheSize = 256

// ResultCache holds recent query results keyed by operation and variables.
// Every Reset starts a new generation; results fetched under an older
// generation are dropped by PutAt. Safe for concurrent use.
type ResultCache struct {
	entries *lru.Cache[string, json.RawMessage]

	mu  sync.Mutex // orders Reset against PutAt
	gen uint64
}

// NewResultCache creates a cache holding up to size results. size <= 0 uses
// DefaultCacheSize.
func NewResultCache(size int) (*ResultCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	entries, err := lru.New[string, json.RawMessage](size)
	if err != nil {
		return nil, fmt.Errorf("transport: creating result cache: %w", err)
	}

	return &ResultCache{entries: entries}, nil
}

// Get returns a copy of the cached result for key.
func (c *ResultCache) Get(key string) (json.RawMessage, bool) {
	data, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}

	return append(json.RawMessage(nil), data...), true
}

// Generation returns the current generation. Capture it before sending a
// request and pass it to PutAt with the result.
func (c *ResultCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gen
}

// PutAt stores a copy of data under key unless the cache was reset after
// gen was captured. Reports whether the result was stored.
func (c *ResultCache) PutAt(key string, data json.RawMessage, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return false
	}

	c.entries.Add(key, append(json.RawMessage(nil), data...))

	return true
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int {
	return c.entries.Len()
}

// Reset discards every cached result and starts a new generation.
func (c *ResultCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.entries.Purge()
}

// cacheKey identifies an operation by name, text, and variables. Variables
// are JSON-encoded, and encoding/json sorts map keys, so equal variable sets
// produce equal keys.
func cacheKey(op *Operation) (string, error) {
	vars, err := json.Marshal(op.Variables)
	if err != nil {
		return "", fmt.Errorf("transport: encoding variables for cache key: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(op.Name))
	h.Write([]byte{0})
	h.Write([]byte(op.Query))
	h.Write([]byte{0})
	h.Write(vars)

	return hex.EncodeToString(h.Sum(nil)), nil
}
