// Package recordstore caches loaded datasets per source locator for a bounded
// window. It is the only state shared across sessions.
package recordstore

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/tce-search/internal/core/domain"
	"github.com/kirillkom/tce-search/internal/core/ports"
)

const DefaultTTL = time.Hour

type entry struct {
	dataset   *domain.Dataset
	expiresAt time.Time
}

type Store struct {
	source ports.DatasetSource
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

func New(source ports.DatasetSource, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Load returns the cached snapshot for locator while it is fresh. Concurrent
// misses for the same locator share one fetch; failures are never cached.
// The shared fetch ignores any single caller's cancellation; each caller
// stops waiting when its own ctx is done.
func (s *Store) Load(ctx context.Context, locator string) (*domain.Dataset, error) {
	key := strings.TrimSpace(locator)
	if ds, ok := s.cached(key); ok {
		return ds, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		if ds, ok := s.cached(key); ok {
			return ds, nil
		}
		start := s.now()
		ds, err := s.source.Load(loadCtx, key)
		if err != nil {
			slog.Warn("dataset_load_failed", "source", redact(key), "error", err)
			return nil, err
		}
		s.mu.Lock()
		s.entries[key] = entry{dataset: ds, expiresAt: s.now().Add(s.ttl)}
		s.mu.Unlock()
		slog.Info("dataset_loaded", "source", ds.Source, "records", len(ds.Records), "duration_ms", float64(s.now().Sub(start).Microseconds())/1000.0)
		return ds, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Dataset), nil
	}
}

// Invalidate drops the cached snapshot so the next Load fetches again.
func (s *Store) Invalidate(locator string) {
	s.mu.Lock()
	delete(s.entries, strings.TrimSpace(locator))
	s.mu.Unlock()
}

func (s *Store) cached(key string) (*domain.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.dataset, true
}

func redact(locator string) string {
	u, err := url.Parse(locator)
	if err != nil {
		return locator
	}
	return u.Redacted()
}
