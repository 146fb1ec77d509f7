// Package storage persists the call log and daily goal in a string-valued
// key-value store. Backends: a JSON file, SQLite, Redis and memory.
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rezmoss/callcountcli/internal/config"
)

var ErrNotFound = errors.New("key not found")

// KV is a durable slot per key. Set overwrites.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open returns the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (KV, error) {
	var (
		kv  KV
		err error
	)
	switch cfg.Driver {
	case "file", "":
		kv, err = OpenFile(cfg.Path, logger)
	case "sqlite":
		kv, err = OpenSQLite(ctx, cfg.Path)
	case "redis":
		kv, err = NewRedis(ctx, cfg.Redis, logger)
	case "memory":
		kv = NewMemory()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	return kv, nil
}
