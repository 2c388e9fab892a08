package db

import (
	"errors"
	"fmt"
	"log"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"

	"github.com/diewo77/go-freelance/internal/config"
	"github.com/diewo77/go-freelance/internal/models"
)

// MigrationsSource is where the SQL migrations live relative to the working directory.
var MigrationsSource = "file://migrations"

// requiredTables must exist once the schema is applied.
var requiredTables = []string{"users", "clients", "projects", "invoices", "invoice_items", "payments"}

// Migrate applies the SQL migrations when MIGRATIONS is enabled on Postgres,
// otherwise it falls back to GORM AutoMigrate.
func Migrate(db *gorm.DB, cfg *config.Config) error {
	if cfg.App.Migrations && cfg.Database.Driver != "sqlite" {
		log.Println("[DB] running SQL migrations")
		if err := runSQLMigrations(ToURLDSN(NormalizeDSN(cfg.Database.DSN()))); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else if err := AutoMigrate(db); err != nil {
		return err
	}
	for _, table := range requiredTables {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// AutoMigrate creates or updates every table from the models.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func runSQLMigrations(url string) error {
	m, err := migrate.New(MigrationsSource, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
