package config_test

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/funnel/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, config.DriverFile, cfg.Store.Driver)
	assert.Equal(t, 64, cfg.SkipLimit)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "funnel.yaml", `
log_level: debug
store:
  driver: redis
  redis_addr: localhost:6379
  ttl: 72h
delays:
  typing_min: 50ms
`)
	t.Setenv("FUNNEL_LOG_LEVEL", "warn")
	t.Setenv("FUNNEL_STORE_REDIS_DB", "3")
	t.Setenv("FUNNEL_STORE_PII_KEYS", "name,kycName")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel, "env wins over the file")
	assert.Equal(t, config.DriverRedis, cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Store.RedisDB)
	assert.Equal(t, 72*time.Hour, cfg.Store.TTL)
	assert.Equal(t, []string{"name", "kycName"}, cfg.Store.PIIKeys)
	assert.Equal(t, 50*time.Millisecond, cfg.Delays.Runtime().TypingMin)
	assert.Equal(t, ":8080", cfg.HTTP.Addr, "unset values keep their default")
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "funnel.json", `{"store": {"driver": "memory"}, "skip_limit": 10}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 10, cfg.SkipLimit)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeFile(t, "funnel.yaml", "store:\n  driver: etcd\nskip_limit: 0\nlog_format: xml\n")
	_, err := config.Load(path)
	require.Error(t, err)
	for _, want := range []string{"etcd", "skip_limit", "xml"} {
		assert.True(t, strings.Contains(err.Error(), want), "error mentions %q: %v", want, err)
	}

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

	for _, sc := range []config.StoreConfig{
		{Driver: config.DriverMemory, EncryptionKey: key, PIIKeys: []string{"kycName"}},
		{Driver: config.DriverFile, Path: t.TempDir()},
		{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "funnel.db")},
	} {
		t.Run(sc.Driver, func(t *testing.T) {
			store, closeFn, err := sc.OpenStore()
			require.NoError(t, err)
			defer func() { assert.NoError(t, closeFn()) }()

			require.NoError(t, store.Set(ctx, "k", `{"kycName":"Asha","step":"x"}`))
			got, err := store.Get(ctx, "k")
			require.NoError(t, err)
			if len(sc.PIIKeys) > 0 {
				assert.JSONEq(t, `{"kycName":"***","step":"x"}`, got)
			} else {
				assert.JSONEq(t, `{"kycName":"Asha","step":"x"}`, got)
			}
		})
	}

	_, _, err := config.StoreConfig{Driver: config.DriverMemory, EncryptionKey: "c2hvcnQ="}.OpenStore()
	assert.ErrorContains(t, err, "32 bytes")
}
