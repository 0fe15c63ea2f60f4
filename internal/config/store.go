package config

import (
	"encoding/base64"
	"fmt"
	"regexp"

	"github.com/aretw0/funnel/pkg/adapters/file"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/adapters/redis"
	"github.com/aretw0/funnel/pkg/adapters/sqlite"
	"github.com/aretw0/funnel/pkg/persistence/middleware"
	"github.com/aretw0/funnel/pkg/ports"
)

// OpenStore builds the configured backend wrapped in the PII and encryption
// middlewares. The returned close function releases the backend.
func (c StoreConfig) OpenStore() (ports.KeyValueStore, func() error, error) {
	var (
		store   ports.KeyValueStore
		closeFn = func() error { return nil }
	)
	switch c.Driver {
	case DriverMemory:
		store = memory.NewStore()
	case DriverFile:
		store = file.New(c.Path)
	case DriverRedis:
		var opts []redis.Option
		if c.TTL > 0 {
			opts = append(opts, redis.WithTTL(c.TTL))
		}
		s := redis.New(c.RedisAddr, c.RedisPassword, c.RedisDB, opts...)
		store, closeFn = s, s.Close
	case DriverSQLite:
		s, err := sqlite.Open(c.Path)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, s.Close
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", c.Driver)
	}

	var mws []middleware.Middleware
	if len(c.PIIKeys) > 0 {
		patterns := make([]string, len(c.PIIKeys))
		for i, k := range c.PIIKeys {
			patterns[i] = "^" + regexp.QuoteMeta(k) + "$"
		}
		mws = append(mws, middleware.NewPIIMiddleware(patterns))
	}
	if c.EncryptionKey != "" {
		enc, err := c.encryption()
		if err != nil {
			_ = closeFn()
			return nil, nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	return middleware.Chain(store, mws...), closeFn, nil
}

func (c StoreConfig) encryption() (middleware.EncryptionConfig, error) {
	active, err := decodeKey(c.EncryptionKey)
	if err != nil {
		return middleware.EncryptionConfig{}, fmt.Errorf("encryption key: %w", err)
	}
	cfg := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range c.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return middleware.EncryptionConfig{}, fmt.Errorf("fallback key #%d: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	return cfg, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("not base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
