package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "APP_NAME", "APP_ENV", "PORT", "LOG_LEVEL",
		"STORAGE_BACKEND", "BALANCE_KEY", "SQLITE_PATH", "MYSQL_DSN",
		"DATABASE_URL", "REDIS_URL", "MONGO_URI", "MONGO_DATABASE",
		"SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT_SECONDS",
		"IDEMPOTENCY_TTL", "IDEMPOTENCY_TTL_SECONDS", "RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageBackend != "sqlite" || cfg.SQLitePath != defaultSQLitePath {
		t.Fatalf("unexpected storage defaults: %+v", cfg)
	}
	if cfg.BalanceKey != "midnight_mdt_balance_v1" {
		t.Fatalf("unexpected balance key %q", cfg.BalanceKey)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
	if !cfg.IsDev() {
		t.Fatalf("expected development environment by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PORT", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("IDEMPOTENCY_TTL", "90m")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageBackend != "redis" {
		t.Fatalf("expected redis backend, got %q", cfg.StorageBackend)
	}
	if cfg.Address() != ":9090" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
	if cfg.ShutdownPeriod != 3*time.Second {
		t.Fatalf("unexpected shutdown period %v", cfg.ShutdownPeriod)
	}
	if cfg.IdempotencyTTL != 90*time.Minute {
		t.Fatalf("unexpected idempotency ttl %v", cfg.IdempotencyTTL)
	}
	if cfg.RateLimit != 12 {
		t.Fatalf("unexpected rate limit %d", cfg.RateLimit)
	}
}

func TestLoadRequiresBackendSettings(t *testing.T) {
	clearEnv(t)
	for _, backend := range []string{"mysql", "redis", "postgres", "mongo"} {
		t.Run(backend, func(t *testing.T) {
			t.Setenv("STORAGE_BACKEND", backend)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s without connection settings", backend)
			}
		})
	}

	t.Setenv("STORAGE_BACKEND", "etcd")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid duration error")
	}
}

func TestLoadYAMLFileWithEnvPrecedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`app_name: AuditorWallet
storage_backend: mongo
mongo_uri: mongodb://localhost:27017
balance_key: custom_balance_v2
shutdown_timeout: 4s
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_NAME", "FromEnv")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppName != "FromEnv" {
		t.Fatalf("environment must win over file, got %q", cfg.AppName)
	}
	if cfg.StorageBackend != "mongo" || cfg.MongoURI != "mongodb://localhost:27017" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.MongoDatabase != defaultMongoDatabase {
		t.Fatalf("defaults must survive a partial file, got %q", cfg.MongoDatabase)
	}
	if cfg.BalanceKey != "custom_balance_v2" {
		t.Fatalf("unexpected key %q", cfg.BalanceKey)
	}
	if cfg.ShutdownPeriod != 4*time.Second {
		t.Fatalf("unexpected shutdown period %v", cfg.ShutdownPeriod)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
