package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
)

type memoryEntry struct {
	snapshot  domain.CartSnapshot
	expiresAt time.Time
}

// MemoryCache is the in-process cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]memoryEntry
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]memoryEntry),
	}
}

func (m *MemoryCache) Get(_ context.Context, userID int64) (*domain.CartSnapshot, error) {
	m.mu.RLock()
	entry, ok := m.entries[userID]
	m.mu.RUnlock()

	if !ok || m.now().After(entry.expiresAt) {
		return nil, ErrCacheMiss
	}
	snapshot := entry.snapshot
	snapshot.Items = append([]domain.CartItem(nil), entry.snapshot.Items...)
	return &snapshot, nil
}

func (m *MemoryCache) Set(_ context.Context, userID int64, snapshot *domain.CartSnapshot) error {
	stored := *snapshot
	stored.Items = append([]domain.CartItem(nil), snapshot.Items...)

	m.mu.Lock()
	m.entries[userID] = memoryEntry{snapshot: stored, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	delete(m.entries, userID)
	m.mu.Unlock()
	return nil
}
