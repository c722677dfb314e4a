package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value has been stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is a durable string key-value store. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// tableName is shared by every SQL/document backend.
const tableName = "kv_store"
