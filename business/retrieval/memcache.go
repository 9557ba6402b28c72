package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryPopularityCache is a process-local PopularityCache for tests and
// the batch trainer, where a shared redis brings nothing.
type MemoryPopularityCache struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

type memEntry struct {
	scores    map[string]float64
	expiresAt time.Time
}

func NewMemoryPopularityCache() *MemoryPopularityCache {
	return &MemoryPopularityCache{
		entries: make(map[string]memEntry),
	}
}

func (c *MemoryPopularityCache) Get(_ context.Context, ageBin string, windowDays int) (map[string]float64, error) {
	c.mu.RLock()
	entry, ok := c.entries[memKey(ageBin, windowDays)]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}

	return entry.scores, nil
}

func (c *MemoryPopularityCache) Set(_ context.Context, ageBin string, windowDays int, scores map[string]float64, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[memKey(ageBin, windowDays)] = memEntry{
		scores:    scores,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()

	return nil
}

func memKey(ageBin string, windowDays int) string {
	return fmt.Sprintf("%s:%d", ageBin, windowDays)
}
