package results

import (
	"context"
	"fmt"
	"log"

	"repo2pipe/internal/config"
)

// Open builds the store selected by cfg, wrapped in a read cache when
// cfg.CacheSize is positive. The returned close function releases backend
// connections.
func Open(ctx context.Context, cfg config.ResultsConfig) (Store, func() error, error) {
	noop := func() error { return nil }
	var (
		origin Store
		closer = noop
	)
	switch cfg.Store {
	case "", config.StoreMemory:
		origin = NewMemoryStore()
		logStoreKind(config.StoreMemory, "")
	case config.StoreFile:
		fs, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, noop, err
		}
		origin = fs
		logStoreKind(config.StoreFile, cfg.Dir)
	case config.StoreS3:
		s3, err := NewS3Store(S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, noop, err
		}
		origin = s3
		logStoreKind(config.StoreS3, cfg.S3.Endpoint+"/"+cfg.S3.Bucket)
	case config.StorePostgres:
		pg, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		origin = pg
		closer = pg.Close
		logStoreKind(config.StorePostgres, "")
	default:
		return nil, noop, fmt.Errorf("results: unknown store kind %q", cfg.Store)
	}

	if _, isMem := origin.(*MemoryStore); isMem || cfg.CacheSize <= 0 {
		return origin, closer, nil
	}
	return NewCachedStore(origin, CacheConfig{MaxEntries: cfg.CacheSize, TTL: cfg.CacheTTL}), closer, nil
}

func logStoreKind(kind, detail string) {
	if detail == "" {
		log.Printf("result store: %s", kind)
		return
	}
	log.Printf("result store: %s (%s)", kind, detail)
}
