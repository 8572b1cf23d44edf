package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Result store kinds.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreS3       = "s3"
	StorePostgres = "postgres"
)

type Config struct {
	WorkDir           string
	DefaultBranch     string
	CloneDepth        int
	Port              string
	MaxConcurrentRuns int
	// GatewayAllowLocal lets gateway requests name local paths and file:// URLs.
	GatewayAllowLocal bool
	Results           ResultsConfig
}

type ResultsConfig struct {
	Store       string
	Dir         string
	PostgresDSN string
	CacheSize   int
	CacheTTL    time.Duration
	S3          S3Config
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads .env (if present) and the environment. Malformed numbers fall
// back to their defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		WorkDir:           firstNonEmpty(env("REPO2PIPE_WORKDIR"), filepath.Join(os.TempDir(), "repo2pipe")),
		DefaultBranch:     firstNonEmpty(env("REPO2PIPE_DEFAULT_BRANCH"), "main"),
		CloneDepth:        envInt("REPO2PIPE_CLONE_DEPTH", 1),
		Port:              normalizePort(firstNonEmpty(env("PORT"), ":8081")),
		MaxConcurrentRuns: envInt("REPO2PIPE_MAX_CONCURRENT_RUNS", 4),
		GatewayAllowLocal: envBool("REPO2PIPE_GATEWAY_ALLOW_LOCAL", false),
		Results: ResultsConfig{
			Store:       strings.ToLower(firstNonEmpty(env("RESULT_STORE"), StoreMemory)),
			Dir:         firstNonEmpty(env("RESULT_STORE_DIR"), "./results"),
			PostgresDSN: env("RESULT_STORE_PG_DSN"),
			CacheSize:   envInt("RESULT_CACHE_ENTRIES", 128),
			CacheTTL:    time.Duration(envInt("RESULT_CACHE_TTL_SECONDS", 600)) * time.Second,
			S3:          loadS3Config(),
		},
	}
	return cfg, nil
}

func loadS3Config() S3Config {
	return S3Config{
		Endpoint:  env("ARTIFACT_S3_ENDPOINT"),
		Region:    firstNonEmpty(env("ARTIFACT_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(env("ARTIFACT_S3_ACCESS_KEY"), env("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(env("ARTIFACT_S3_SECRET_KEY"), env("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(env("ARTIFACT_S3_BUCKET"), "repo2pipe-results"),
		UseSSL:    envBool("ARTIFACT_S3_USE_SSL", true),
	}
}

// Validate rejects settings that cannot produce a working result store.
func (c *Config) Validate() error {
	var errs []error
	if c.CloneDepth < 1 {
		errs = append(errs, fmt.Errorf("REPO2PIPE_CLONE_DEPTH must be at least 1, got %d", c.CloneDepth))
	}
	if c.MaxConcurrentRuns < 1 {
		errs = append(errs, fmt.Errorf("REPO2PIPE_MAX_CONCURRENT_RUNS must be at least 1, got %d", c.MaxConcurrentRuns))
	}
	switch c.Results.Store {
	case StoreMemory:
	case StoreFile:
		if strings.TrimSpace(c.Results.Dir) == "" {
			errs = append(errs, errors.New("RESULT_STORE_DIR is required for the file store"))
		}
	case StoreS3:
		s3 := c.Results.S3
		if s3.Endpoint == "" || s3.AccessKey == "" || s3.SecretKey == "" || s3.Bucket == "" {
			errs = append(errs, errors.New("the s3 store needs ARTIFACT_S3_ENDPOINT, ARTIFACT_S3_ACCESS_KEY, ARTIFACT_S3_SECRET_KEY and ARTIFACT_S3_BUCKET"))
		}
	case StorePostgres:
		if c.Results.PostgresDSN == "" {
			errs = append(errs, errors.New("RESULT_STORE_PG_DSN is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown RESULT_STORE %q (want memory, file, s3 or postgres)", c.Results.Store))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func normalizePort(p string) string {
	if strings.HasPrefix(p, ":") || strings.Contains(p, ":") {
		return p
	}
	return ":" + p
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envInt(key string, def int) int {
	raw := env(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	raw := env(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
