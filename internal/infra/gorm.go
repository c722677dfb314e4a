package infra

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cardano-ai-auditor/midnight-wallet/internal/storage"
)

const (
	mysqlMaxOpenConns    = 20
	mysqlMaxIdleConns    = 5
	mysqlConnMaxLifetime = 30 * time.Minute
)

// NewGormDB opens the relational backend selected by STORAGE_BACKEND. For
// sqlite dsn is a file path.
func NewGormDB(backend, dsn, logLevel string) (*gorm.DB, error) {
	switch backend {
	case storage.BackendSQLite:
		return NewSQLiteDB(dsn, logLevel)
	case storage.BackendMySQL:
		return NewMySQLDB(dsn, logLevel)
	default:
		return nil, fmt.Errorf("backend %q is not served by gorm", backend)
	}
}

// NewSQLiteDB opens (creating if needed) the SQLite database file at path.
func NewSQLiteDB(path string, logLevel string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := gorm.Open(sqlite.Open(path), gormConfig(logLevel))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// SQLite serializes writers; one connection avoids "database is locked".
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// NewMySQLDB connects to MySQL, verifies connectivity and applies pool limits.
func NewMySQLDB(dsn string, logLevel string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("mysql dsn is required")
	}
	db, err := gorm.Open(mysql.Open(dsn), gormConfig(logLevel))
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.db: %w", err)
	}
	sqlDB.SetMaxOpenConns(mysqlMaxOpenConns)
	sqlDB.SetMaxIdleConns(mysqlMaxIdleConns)
	sqlDB.SetConnMaxLifetime(mysqlConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

func gormConfig(level string) *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 newGormLogger(level),
	}
}

// newGormLogger maps the application log level onto gorm's; only errors are
// logged unless debug is requested.
func newGormLogger(level string) logger.Interface {
	var logLevel logger.LogLevel
	switch level {
	case "debug":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "silent":
		logLevel = logger.Silent
	default:
		logLevel = logger.Error
	}
	return logger.Default.LogMode(logLevel)
}
