// Package imagecache resolves 7-digit item codes to product image
// URLs through a persistent read-through cache. Every key is fetched
// over the network at most once per store lifetime; failed lookups are
// memoized with an empty-string sentinel so they are never retried.
package imagecache

import (
	"context"
	"fmt"

	"amazon-suisyou/internal/imagecache/db"
	configlibsql "amazon-suisyou/lib/configutil/libsql"
)

// Store is the durable mirror behind the resolver. Load hydrates the
// whole table at startup; Put persists one resolution (including the
// "" failure sentinel) and is durable when it returns.
type Store interface {
	Load(ctx context.Context) (map[string]string, error)
	Put(ctx context.Context, key, value string) error
	Close() error
}

// AdminStore adds the maintenance operations the CLI exposes. The
// resolver itself never deletes entries.
type AdminStore interface {
	Store
	Delete(ctx context.Context, key string) error
}

type Config struct {
	// csv (the default), sqlite or libsql
	Backend string `json:"backend"`
	// csv file path, defaults to image_cache.csv
	File string `json:"file"`
	// database settings for the sqlite/libsql backends
	Database configlibsql.Struct `json:"database"`
}

const DefaultCSVPath = "image_cache.csv"

// OpenStore opens the durable store selected by the config.
func OpenStore(cfg Config) (AdminStore, error) {
	switch cfg.Backend {
	case "", "csv":
		path := cfg.File
		if path == "" {
			path = DefaultCSVPath
		}
		return NewCSVStore(path)
	case "sqlite":
		if cfg.Database.File == "" {
			return nil, fmt.Errorf("cache backend sqlite requires database.file")
		}
		database, err := cfg.Database.OpenDB(db.Schema)
		if err != nil {
			return nil, err
		}
		return NewSQLStore(database), nil
	case "libsql":
		if cfg.Database.Url == "" {
			return nil, fmt.Errorf("cache backend libsql requires database.url")
		}
		database, err := cfg.Database.OpenDB(db.Schema)
		if err != nil {
			return nil, err
		}
		return NewSQLStore(database), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
