package infra

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/cardano-ai-auditor/midnight-wallet/internal/config"
	"github.com/cardano-ai-auditor/midnight-wallet/internal/storage"
)

func TestOpenStoreSQLiteMigrates(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		StorageBackend: storage.BackendSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "wallet.db"),
		LogLevel:       "silent",
	}
	store, err := OpenStore(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	defer store.Close()

	if err := store.Set(ctx, "k", "7"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, err := store.Get(ctx, "k"); err != nil || v != "7" {
		t.Fatalf("get = %q, %v", v, err)
	}
}

func TestOpenStoreRedisReusesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ctx := context.Background()
	store, err := OpenStore(ctx, config.Config{StorageBackend: storage.BackendRedis}, cache)
	if err != nil {
		t.Fatalf("open redis store: %v", err)
	}
	defer store.Close()

	if err := store.Set(ctx, "balance", "3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("balance"); got != "3" {
		t.Fatalf("expected value in shared redis, got %q", got)
	}
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	if _, err := OpenStore(context.Background(), config.Config{StorageBackend: "etcd"}, nil); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestNewGormDBRejectsOtherBackends(t *testing.T) {
	if _, err := NewGormDB(storage.BackendMongo, "x", "info"); err == nil {
		t.Fatalf("expected error for non-gorm backend")
	}
}

func TestNewRedisClientRequiresURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestNewRedisClientPings(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	client.Close()
}
