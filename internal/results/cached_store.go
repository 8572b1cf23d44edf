package results

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxEntries: 128,
		TTL:        10 * time.Minute,
	}
}

type MetricsSnapshot struct {
	BlobHits       uint64
	BlobMisses     uint64
	ListHits       uint64
	ListMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type Metrics struct {
	blobHits       atomic.Uint64
	blobMisses     atomic.Uint64
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		BlobHits:       m.blobHits.Load(),
		BlobMisses:     m.blobMisses.Load(),
		ListHits:       m.listHits.Load(),
		ListMisses:     m.listMisses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

// CachedStore serves repeated reads from memory. Writes go to the origin
// first and then refresh the cache.
type CachedStore struct {
	origin Store

	blobCache *expirable.LRU[string, []byte]
	listCache *expirable.LRU[string, []string]
	metrics   Metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	return &CachedStore{
		origin:    origin,
		blobCache: expirable.NewLRU[string, []byte](cfg.MaxEntries, nil, cfg.TTL),
		listCache: expirable.NewLRU[string, []string](cfg.MaxEntries, nil, cfg.TTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, runID, name string, content []byte) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Put(ctx, runID, name, content); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	s.blobCache.Add(cacheKey(runID, name), append([]byte(nil), content...))
	s.listCache.Remove(strings.TrimSpace(runID))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, runID, name string) ([]byte, error) {
	key := cacheKey(runID, name)
	if raw, ok := s.blobCache.Get(key); ok {
		s.metrics.blobHits.Add(1)
		return append([]byte(nil), raw...), nil
	}
	s.metrics.blobMisses.Add(1)
	s.metrics.originReads.Add(1)

	raw, err := s.origin.Get(ctx, runID, name)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.blobCache.Add(key, append([]byte(nil), raw...))
	return raw, nil
}

func (s *CachedStore) List(ctx context.Context, runID string) ([]string, error) {
	runID = strings.TrimSpace(runID)
	if list, ok := s.listCache.Get(runID); ok {
		s.metrics.listHits.Add(1)
		return append([]string(nil), list...), nil
	}
	s.metrics.listMisses.Add(1)
	s.metrics.originReads.Add(1)

	list, err := s.origin.List(ctx, runID)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.listCache.Add(runID, append([]string(nil), list...))
	return list, nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}

func cacheKey(runID, name string) string {
	return strings.TrimSpace(runID) + "/" + strings.TrimSpace(name)
}
