// Package service implements the mechanics behind permission decisions:
// the validity cache, the token field ciphers, the on-chain token store and
// lifecycle, and the coordinator that merges concurrent requests into single
// user prompts.
package service

import (
	"sync"
	"time"

	"github.com/allisson/walletguard/permissions"
)

// DefaultCacheTTL bounds how long a granted permission is honored without
// re-reading its token from the wallet.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	expiry   int64
	cachedAt time.Time
}

// Cache remembers recently verified permissions by fingerprint so repeated
// checks skip the token lookup. An entry is honored only while it is younger
// than the TTL and the token expiry it recorded has not passed, so a cached
// grant can never outlive its token. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache returns a cache with the given TTL. A zero ttl selects
// DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put records that the permission identified by fingerprint was verified
// now, with the token's expiry epoch (zero for indefinite tokens).
func (c *Cache) Put(fingerprint string, expiry int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = cacheEntry{expiry: expiry, cachedAt: c.now()}
}

// Valid reports whether a fresh, unexpired entry exists for fingerprint.
func (c *Cache) Valid(fingerprint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fingerprint]
	if !ok {
		return false
	}
	now := c.now()
	if now.Sub(entry.cachedAt) >= c.ttl || permissions.Expired(entry.expiry, now) {
		delete(c.entries, fingerprint)
		return false
	}
	return true
}

// Invalidate drops the entry for fingerprint, if any. Revocation calls this
// so the next check goes back to the token store.
func (c *Cache) Invalidate(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, fingerprint)
}
