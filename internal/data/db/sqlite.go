package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

// SQLiteDSN builds a file DSN that serializes writers and waits on locks
// instead of failing with SQLITE_BUSY.
func SQLiteDSN(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "coursetrack.db"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_txlock=immediate&_foreign_keys=off"
}

// OpenSQLite opens path with a single connection; SQLite allows one writer and
// a single pool connection keeps transactions from contending with themselves.
func OpenSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	if cfg == nil {
		cfg = gormConfig()
	}
	db, err := gorm.Open(sqlite.Open(SQLiteDSN(path)), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Open connects to the configured driver.
func Open(logg *logger.Logger, cfg Config) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverPostgres:
		svc, err := NewPostgresService(logg, cfg)
		if err != nil {
			return nil, err
		}
		return svc.DB(), nil
	case DriverSQLite:
		db, err := OpenSQLite(cfg.SQLitePath, nil)
		if err != nil {
			return nil, err
		}
		logg.Info("opened sqlite database", "path", cfg.SQLitePath)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// IsPostgres reports whether db runs on PostgreSQL.
func IsPostgres(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == DriverPostgres
}
