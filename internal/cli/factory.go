// Package cli builds runtime components from configuration for the lattice commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/adapters/badger"
	"github.com/aretw0/lattice/pkg/adapters/file"
	"github.com/aretw0/lattice/pkg/adapters/graphql"
	"github.com/aretw0/lattice/pkg/adapters/loam"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
	"github.com/aretw0/lattice/pkg/ports"
)

// NewLogger builds the application logger for a configured level name.
func NewLogger(level string) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(lvl), nil
}

// backend is an opened key-value store and what must be released with it.
type backend struct {
	kv      ports.KVStore
	locker  ports.DistributedLocker
	closers []io.Closer
}

func (b *backend) close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewWorkspace wires a workspace from cfg: the key-value backend, the remote
// scenario service and the template library. The caller must Close it.
func NewWorkspace(ctx context.Context, cfg config.Config, logger *slog.Logger) (*lattice.Workspace, error) {
	b, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	opts := []lattice.Option{
		lattice.WithLogger(logger),
		lattice.WithStore(b.kv),
		lattice.WithMaxInputSize(cfg.MaxInputSize),
	}
	if b.locker != nil {
		opts = append(opts, lattice.WithLocker(b.locker))
	}
	for _, c := range b.closers {
		opts = append(opts, lattice.WithCloser(c))
	}

	if cfg.Remote.Endpoint != "" {
		client := graphql.New(cfg.Remote.Endpoint,
			graphql.WithToken(cfg.Remote.Token),
			graphql.WithTimeout(cfg.Remote.Timeout),
			graphql.WithLogger(logger),
		)
		opts = append(opts, lattice.WithScenarioAPI(client), lattice.WithUserAPI(client))
		logger.Info("Remote service configured", "endpoint", cfg.Remote.Endpoint)
	} else {
		opts = append(opts, lattice.WithScenarioAPI(memory.NewScenarioAPI()))
		logger.Warn("No remote endpoint configured, saving to an in-memory service")
	}

	if cfg.TemplatesDir != "" {
		lib, err := loam.Open(cfg.TemplatesDir)
		if err != nil {
			_ = b.close()
			return nil, fmt.Errorf("failed to open template library: %w", err)
		}
		opts = append(opts, lattice.WithTemplates(lib))
	}

	ws, err := lattice.New(opts...)
	if err != nil {
		_ = b.close()
		return nil, err
	}
	return ws, nil
}

// OpenStore opens the configured key-value backend alone, for commands that only
// touch local drafts. The returned close func must be called.
func OpenStore(ctx context.Context, cfg config.Store, logger *slog.Logger) (ports.KVStore, func() error, error) {
	b, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return b.kv, b.close, nil
}

// openStore opens the configured backend, wrapping it with encryption when keys
// are set.
func openStore(ctx context.Context, cfg config.Store, logger *slog.Logger) (*backend, error) {
	b := &backend{}

	switch cfg.Driver {
	case config.DriverMemory:
		b.kv = memory.NewStore()
	case config.DriverFile, "":
		b.kv = file.New(cfg.Path)
	case config.DriverRedis:
		var redisOpts []redis.Option
		if cfg.TTL > 0 {
			redisOpts = append(redisOpts, redis.WithTTL(cfg.TTL))
		}
		if cfg.RedisPrefix != "" {
			redisOpts = append(redisOpts, redis.WithPrefix(cfg.RedisPrefix))
		}
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redisOpts...)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		b.kv = store
		b.locker = redis.NewLocker(store.Client(), cfg.RedisPrefix)
		b.closers = append(b.closers, store)
	case config.DriverBadger:
		bcfg := badger.DefaultConfig(cfg.Path)
		bcfg.Logger = logger
		store, err := badger.Open(bcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		b.kv = store
		b.closers = append(b.closers, store)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	if len(cfg.EncryptionKeys) > 0 {
		encCfg, err := middleware.ParseKeys(cfg.EncryptionKeys)
		if err == nil {
			var mw middleware.Middleware
			if mw, err = middleware.NewEncryptionMiddleware(encCfg); err == nil {
				b.kv = middleware.Chain(b.kv, mw)
			}
		}
		if err != nil {
			_ = b.close()
			return nil, fmt.Errorf("invalid encryption keys: %w", err)
		}
	}

	logger.Debug("Store opened", "driver", cfg.Driver, "path", cfg.Path, "encrypted", len(cfg.EncryptionKeys) > 0)
	return b, nil
}
