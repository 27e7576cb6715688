// Package cache holds small in-process caches for computed read models.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"maintrack/internal/log"
)

// Cache is the read-through surface the services depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Purge drops every entry.
	Purge()
	Size() int
}

// Cleaner is implemented by caches with expiring entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps expired entries of registered caches on an interval.
type Manager struct {
	mu     sync.Mutex
	caches []Cleaner
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// Sweep runs one cleanup pass and returns the number of evicted entries.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.caches {
		n += c.CleanExpired()
	}
	return n
}

// Start launches the background sweeper. It stops when ctx is done or
// Stop is called.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					slog.Debug("Cache sweep", log.FieldComponent, log.ComponentCache, "evicted", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
