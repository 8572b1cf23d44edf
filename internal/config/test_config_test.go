package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"REPO2PIPE_WORKDIR", "REPO2PIPE_DEFAULT_BRANCH", "REPO2PIPE_CLONE_DEPTH", "PORT",
		"REPO2PIPE_MAX_CONCURRENT_RUNS", "REPO2PIPE_GATEWAY_ALLOW_LOCAL", "RESULT_STORE", "RESULT_STORE_DIR", "RESULT_STORE_PG_DSN",
		"RESULT_CACHE_ENTRIES", "RESULT_CACHE_TTL_SECONDS", "ARTIFACT_S3_ENDPOINT", "ARTIFACT_S3_REGION",
		"ARTIFACT_S3_ACCESS_KEY", "ARTIFACT_S3_SECRET_KEY", "ARTIFACT_S3_BUCKET", "ARTIFACT_S3_USE_SSL",
		"MINIO_ROOT_USER", "MINIO_ROOT_PASSWORD",
	} {
		t.Setenv(k, "")
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.DefaultBranch)
	assert.Equal(t, 1, cfg.CloneDepth)
	assert.Equal(t, ":8081", cfg.Port)
	assert.Equal(t, 4, cfg.MaxConcurrentRuns)
	assert.False(t, cfg.GatewayAllowLocal)
	assert.Equal(t, StoreMemory, cfg.Results.Store)
	assert.Equal(t, "./results", cfg.Results.Dir)
	assert.Equal(t, 10*time.Minute, cfg.Results.CacheTTL)
	assert.True(t, cfg.Results.S3.UseSSL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("REPO2PIPE_DEFAULT_BRANCH", "master")
	t.Setenv("REPO2PIPE_CLONE_DEPTH", "5")
	t.Setenv("RESULT_STORE", "S3")
	t.Setenv("ARTIFACT_S3_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ROOT_USER", "minio")
	t.Setenv("MINIO_ROOT_PASSWORD", "secret")
	t.Setenv("ARTIFACT_S3_USE_SSL", "false")
	t.Setenv("RESULT_CACHE_ENTRIES", "not-a-number")
	t.Setenv("REPO2PIPE_GATEWAY_ALLOW_LOCAL", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, "master", cfg.DefaultBranch)
	assert.Equal(t, 5, cfg.CloneDepth)
	assert.Equal(t, StoreS3, cfg.Results.Store)
	assert.Equal(t, "minio", cfg.Results.S3.AccessKey)
	assert.False(t, cfg.Results.S3.UseSSL)
	assert.Equal(t, 128, cfg.Results.CacheSize)
	assert.True(t, cfg.GatewayAllowLocal)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{CloneDepth: 1, MaxConcurrentRuns: 1, Results: ResultsConfig{Store: StoreMemory}}

	cases := map[string]func(c *Config){
		"unknown store":   func(c *Config) { c.Results.Store = "redis" },
		"postgres no dsn": func(c *Config) { c.Results.Store = StorePostgres },
		"s3 incomplete":   func(c *Config) { c.Results.Store = StoreS3; c.Results.S3.Bucket = "b" },
		"file no dir":     func(c *Config) { c.Results.Store = StoreFile },
		"zero depth":      func(c *Config) { c.CloneDepth = 0 },
		"zero runs":       func(c *Config) { c.MaxConcurrentRuns = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config:")
		})
	}
	assert.NoError(t, base.Validate())
}
