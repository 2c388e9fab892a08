// Package db opens the database, applies the schema and seeds demo data.
package db

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-freelance/internal/config"
)

const (
	connectAttempts = 10
	connectDelay    = 2 * time.Second
)

// Connect opens the configured database, retrying while Postgres starts up.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on")
	case "postgres", "":
		dsn := NormalizeDSN(cfg.DSN())
		if dsn == "" {
			return nil, errors.New("database DSN is empty, check DATABASE_DSN or DB_* variables")
		}
		log.Println("[DB] Using DSN:", MaskDSN(dsn))
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	var db *gorm.DB
	var err error
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, gcfg)
		if err == nil {
			err = db.Exec("SELECT 1").Error
		}
		if err == nil {
			break
		}
		log.Printf("[DB] connection attempt %d/%d failed: %v", i+1, connectAttempts, err)
		time.Sleep(connectDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	return db, nil
}
