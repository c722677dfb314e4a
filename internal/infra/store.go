package infra

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cardano-ai-auditor/midnight-wallet/internal/config"
	"github.com/cardano-ai-auditor/midnight-wallet/internal/storage"
)

// OpenStore connects the storage backend named by cfg.StorageBackend and
// prepares its schema. The redis backend reuses cache when it is non-nil, in
// which case closing the store also closes cache.
func OpenStore(ctx context.Context, cfg config.Config, cache *redis.Client) (storage.Store, error) {
	switch cfg.StorageBackend {
	case storage.BackendMemory:
		return storage.NewMemory(), nil

	case storage.BackendSQLite, storage.BackendMySQL:
		dsn := cfg.SQLitePath
		if cfg.StorageBackend == storage.BackendMySQL {
			dsn = cfg.MySQLDSN
		}
		db, err := NewGormDB(cfg.StorageBackend, dsn, cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		store := storage.NewGorm(db)
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrate %s: %w", cfg.StorageBackend, err)
		}
		return store, nil

	case storage.BackendPostgres:
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store := storage.NewPostgres(pool)
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return store, nil

	case storage.BackendRedis:
		client := cache
		if client == nil {
			var err error
			if client, err = NewRedisClient(ctx, cfg.RedisURL); err != nil {
				return nil, err
			}
		}
		return storage.NewRedis(client), nil

	case storage.BackendMongo:
		client, err := NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		return storage.NewMongo(client, cfg.MongoDatabase), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
