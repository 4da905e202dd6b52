// Package repo contains database bootstrapping and the few direct queries the
// gateway runs outside stored procedures (device-token bookkeeping for push
// delivery). Everything else goes through internal/sp.
package repo

import (
	"context"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/aml-logistics/aml-api/internal/config"
)

// Open connects to MariaDB/MySQL and tunes the connection pool. The pool is
// the only shared resource in the process; it is constructed here once and
// injected wherever a handle is needed.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Fail fast on a dead database instead of at the first request.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping runs a trivial round trip and reports its latency. Used by /health.
func Ping(ctx context.Context, db *gorm.DB) (time.Duration, error) {
	started := time.Now()
	var one int
	if err := db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return 0, err
	}
	return time.Since(started), nil
}
