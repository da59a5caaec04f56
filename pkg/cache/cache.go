// Package cache memoizes identical ERP reads for a short window.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultTTL is how long an entry stays fresh unless Set says otherwise.
	DefaultTTL = 5 * time.Minute
	// DefaultCapacity is the number of entries kept before the least recently
	// used one is evicted.
	DefaultCapacity = 1024
)

// Entry is a cached value and its expiry.
type Entry struct {
	Value     any
	ExpiresAt time.Time
}

// Cache is a capacity-bounded LRU whose entries expire against an injectable
// clock. It is safe for concurrent use; concurrent writers of one key leave
// the last value.
type Cache struct {
	entries *lru.Cache[string, Entry]
	ttl     time.Duration
	now     func() time.Time
}

// Option configures the cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache holding at most capacity entries with a default ttl.
// Non-positive arguments select the package defaults.
func New(capacity int, ttl time.Duration, opts ...Option) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	entries, err := lru.New[string, Entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	c := &Cache{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the default entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the value stored under key if it has not expired.
func (c *Cache) Get(key string) (any, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.ExpiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return e.Value, true
}

// Set stores value under key for ttl, or the default TTL when ttl <= 0.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.entries.Add(key, Entry{Value: value, ExpiresAt: c.now().Add(ttl)})
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Key derives a stable key from parts. Text is lowercased and whitespace
// collapsed before hashing, so equivalent queries phrased differently share
// a key.
func Key(parts ...any) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte('|')
		}
		data, err := json.Marshal(p)
		if err != nil {
			data = []byte(fmt.Sprint(p))
		}
		b.Write(data)
	}
	normalized := strings.Join(strings.Fields(strings.ToLower(b.String())), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
