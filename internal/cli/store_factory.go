package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/cardflow/internal/config"
	"github.com/aretw0/cardflow/pkg/adapters/file"
	"github.com/aretw0/cardflow/pkg/adapters/loam"
	"github.com/aretw0/cardflow/pkg/adapters/memory"
	"github.com/aretw0/cardflow/pkg/adapters/redis"
	"github.com/aretw0/cardflow/pkg/adapters/sqlite"
	"github.com/aretw0/cardflow/pkg/flowfile"
	"github.com/aretw0/cardflow/pkg/persistence/middleware"
	"github.com/aretw0/cardflow/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Backend bundles the configured flow store and its optional locker.
type Backend struct {
	Store  ports.FlowStore
	Locker ports.DistributedLocker
	closer func() error
}

// Close releases the store's connections.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

// OpenBackend creates the flow store selected by cfg.Driver, wrapped in the
// encryption middleware when a key is configured.
func OpenBackend(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Backend, error) {
	logger.Debug("opening flow store", "driver", cfg.Driver, "encrypted", cfg.EncryptionKey != "")

	b, err := openDriver(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.EncryptionKey == "" {
		return b, nil
	}

	mw, err := encryptionMiddleware(cfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Store = middleware.Chain(b.Store, mw)
	return b, nil
}

func encryptionMiddleware(cfg config.StoreConfig) (middleware.Middleware, error) {
	active, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	mwCfg := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("invalid fallback key %d: %w", i, err)
		}
		mwCfg.FallbackKeys = append(mwCfg.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(mwCfg)
}

func openDriver(ctx context.Context, cfg config.StoreConfig) (*Backend, error) {
	switch cfg.Driver {
	case "memory":
		return &Backend{Store: memory.NewStore()}, nil

	case "file", "":
		var opts []file.Option
		if cfg.Format != "" {
			opts = append(opts, file.WithFormat(flowfile.Format(cfg.Format)))
		}
		return &Backend{Store: file.New(cfg.Dir, opts...)}, nil

	case "redis":
		redisOpts, err := backend.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := backend.NewClient(redisOpts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		var opts []redis.Option
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		if cfg.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.TTL))
		}
		store := redis.NewFromClient(client, opts...)
		b := &Backend{Store: store, closer: store.Close}
		if cfg.Lock {
			prefix := cfg.Prefix
			if prefix == "" {
				prefix = redis.DefaultPrefix
			}
			b.Locker = redis.NewLocker(client, prefix)
		}
		return b, nil

	case "loam":
		store, err := loam.New(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store}, nil

	case "sqlite":
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, closer: store.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
