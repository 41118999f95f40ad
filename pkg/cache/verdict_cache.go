// Package cache holds short-lived backend answers for the editor sessions of
// the gateway.
package cache

import (
	"hash/maphash"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DamienReichhart/TradeForge-sub000/pkg/expr"
)

const shardCount = 16

type verdictKey struct {
	scope      string
	kind       expr.Kind
	expression string
}

type verdictEntry struct {
	verdict expr.Verdict
	expires time.Time
}

type shard struct {
	mu      sync.RWMutex
	entries map[verdictKey]verdictEntry
}

// VerdictCache remembers backend verdicts per (scope, kind, expression) so
// an expression typed again within the TTL skips the round trip. Entries
// never cross scopes. It is split
// into shards to keep lock contention low with many open editors.
type VerdictCache struct {
	ttl    time.Duration
	now    func() time.Time
	seed   maphash.Seed
	shards [shardCount]shard

	hits, misses atomic.Uint64
}

func NewVerdictCache(ttl time.Duration) *VerdictCache {
	c := &VerdictCache{ttl: ttl, now: time.Now, seed: maphash.MakeSeed()}
	for i := range c.shards {
		c.shards[i].entries = make(map[verdictKey]verdictEntry)
	}
	return c
}

func (c *VerdictCache) shardFor(k verdictKey) *shard {
	var h maphash.Hash
	h.SetSeed(c.seed)
	h.WriteString(k.scope)
	h.WriteByte(0)
	h.WriteString(string(k.kind))
	h.WriteByte(0)
	h.WriteString(k.expression)
	return &c.shards[h.Sum64()%shardCount]
}

func (c *VerdictCache) Set(scope string, kind expr.Kind, expression string, v expr.Verdict) {
	k := verdictKey{scope, kind, expression}
	s := c.shardFor(k)
	s.mu.Lock()
	s.entries[k] = verdictEntry{verdict: v, expires: c.now().Add(c.ttl)}
	s.mu.Unlock()
}

// Get returns a verdict that has not expired yet.
func (c *VerdictCache) Get(scope string, kind expr.Kind, expression string) (expr.Verdict, bool) {
	k := verdictKey{scope, kind, expression}
	s := c.shardFor(k)
	s.mu.RLock()
	e, ok := s.entries[k]
	s.mu.RUnlock()
	if !ok || c.now().After(e.expires) {
		c.misses.Add(1)
		return expr.Verdict{}, false
	}
	c.hits.Add(1)
	return e.verdict, true
}

// Len counts stored entries, expired ones included until Cleanup runs.
func (c *VerdictCache) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Cleanup drops expired entries and reports how many went.
func (c *VerdictCache) Cleanup() int {
	now := c.now()
	removed := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for k, e := range s.entries {
			if now.After(e.expires) {
				delete(s.entries, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

type CacheStats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

func (c *VerdictCache) Stats() CacheStats {
	return CacheStats{Entries: c.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}
