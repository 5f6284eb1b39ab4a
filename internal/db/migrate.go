package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// goose names the sqlite dialect after the cgo driver.
var dialects = map[string]string{
	"sqlite": "sqlite3",
	"pgx":    "postgres",
}

func getDialect(driver string) string {
	if dialect, ok := dialects[driver]; ok {
		return dialect
	}
	return driver
}

// useMigrations points goose at the embedded kv schema for the driver.
func useMigrations(driver string) error {
	err := goose.SetDialect(getDialect(driver))
	if err != nil {
		return fmt.Errorf("unsupported local driver %q: %w", driver, err)
	}

	dir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	goose.SetBaseFS(dir)
	goose.SetLogger(goose.NopLogger())
	return nil
}

// RunMigrations brings the local store schema up to date.
func RunMigrations(db *sql.DB, driver string) error {
	err := useMigrations(driver)
	if err != nil {
		return err
	}

	err = goose.Up(db, ".")
	if err != nil {
		return fmt.Errorf("failed to migrate local store: %w", err)
	}

	slog.Debug("local store schema up to date")
	return nil
}

// ResetSchema rolls every migration back and applies them again, dropping
// all data the local store holds for every account on this device.
func ResetSchema(db *sql.DB, driver string) error {
	err := useMigrations(driver)
	if err != nil {
		return err
	}

	err = goose.Reset(db, ".")
	if err != nil {
		return fmt.Errorf("failed to roll back local store: %w", err)
	}

	err = goose.Up(db, ".")
	if err != nil {
		return fmt.Errorf("failed to recreate local store: %w", err)
	}

	slog.Info("local store reset")
	return nil
}
