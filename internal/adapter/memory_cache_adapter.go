package adapter

import (
	"context"
	"sync"
	"time"

	"quiz-lens/internal/domain"
	"quiz-lens/internal/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCacheAdapter implements domain.Cache in process memory. Expired
// entries are invisible to Get immediately and are removed by Sweep, which
// StartSweeper schedules with cron.
type MemoryCacheAdapter struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
	cron    *cron.Cron
}

// NewMemoryCacheAdapter creates an empty in-memory cache.
func NewMemoryCacheAdapter() *MemoryCacheAdapter {
	return &MemoryCacheAdapter{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

var _ domain.Cache = (*MemoryCacheAdapter)(nil)

func (m *MemoryCacheAdapter) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || entry.expired(m.now()) {
		return "", domain.ErrCacheMiss
	}
	return entry.value, nil
}

func (m *MemoryCacheAdapter) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	entry := memoryEntry{value: value}
	if expiration > 0 {
		entry.expiresAt = m.now().Add(expiration)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryCacheAdapter) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCacheAdapter) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of stored entries, expired or not.
func (m *MemoryCacheAdapter) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sweep removes expired entries and returns how many were removed.
func (m *MemoryCacheAdapter) Sweep() int {
	now := m.now()
	removed := 0
	m.mu.Lock()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
			removed++
		}
	}
	m.mu.Unlock()
	return removed
}

// StartSweeper runs Sweep on the given cron schedule (e.g. "@every 1m").
func (m *MemoryCacheAdapter) StartSweeper(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if n := m.Sweep(); n > 0 {
			logger.Get().Debug("Swept expired cache entries", zap.Int("removed", n))
		}
	}); err != nil {
		return err
	}
	c.Start()
	m.cron = c
	return nil
}

// StopSweeper stops the cron scheduler and waits for a running sweep.
func (m *MemoryCacheAdapter) StopSweeper() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
	m.cron = nil
}
