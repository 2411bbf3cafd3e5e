// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package drift

import (
	"sync"
	"time"

	"github.com/driftbench/driftbench/pkg/types"
)

// CacheState reports how a lookup was served; it maps onto the X-Cache
// response header.
type CacheState string

const (
	CacheHit     CacheState = "HIT"
	CacheMiss    CacheState = "MISS"
	CachePartial CacheState = "PARTIAL" // expired entry served while stale
)

const (
	cacheBaseTTL = 3600 * time.Second
	// cacheSmear staggers expiry by modelID so a whole dashboard refresh
	// does not recompute every signature in the same second.
	cacheSmear = 300 * time.Second
)

type cacheEntry struct {
	sig       *types.DriftSignature
	expiresAt time.Time
}

// Cache is the read-through signature cache. Writes are idempotent:
// putting the same signature twice just refreshes the TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[int64]cacheEntry

	hits   int64
	misses int64

	now func() time.Time // test hook
}

// NewCache returns an empty signature cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[int64]cacheEntry),
		now:     time.Now,
	}
}

func ttlFor(modelID int64) time.Duration {
	smear := (time.Duration(modelID) * time.Second) % cacheSmear
	return cacheBaseTTL + smear
}

// Get returns the cached signature for a model. A fresh entry is a HIT,
// an expired one is PARTIAL (the stale value is still returned so the
// caller can serve it while recomputing), and an absent one is a MISS.
func (c *Cache) Get(modelID int64) (*types.DriftSignature, CacheState) {
	c.mu.RLock()
	entry, ok := c.entries[modelID]
	c.mu.RUnlock()
	if !ok {
		c.count(false)
		return nil, CacheMiss
	}
	if c.now().After(entry.expiresAt) {
		c.count(false)
		return entry.sig, CachePartial
	}
	c.count(true)
	return entry.sig, CacheHit
}

// Put stores a signature with the model's smeared TTL.
func (c *Cache) Put(modelID int64, sig *types.DriftSignature) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[modelID] = cacheEntry{
		sig:       sig,
		expiresAt: c.now().Add(ttlFor(modelID)),
	}
}

func (c *Cache) count(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
}

// Stats is the cache health snapshot exposed on /drift/health.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Stats returns a point-in-time view of cache effectiveness.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}
