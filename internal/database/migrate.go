package database

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"orma/internal/middleware"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "migrations"

func prepareGoose() error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	return nil
}

// RunMigrations applies all pending embedded SQL migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	middleware.Logger.InfoContext(ctx, "database migrations applied")
	return nil
}

// RollbackMigration reverts the most recently applied migration.
func RollbackMigration(ctx context.Context, db *gorm.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	if err := goose.DownContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	middleware.Logger.InfoContext(ctx, "database migration rolled back")
	return nil
}

// MigrationVersion returns the schema version recorded by goose.
func MigrationVersion(ctx context.Context, db *gorm.DB) (int64, error) {
	if err := prepareGoose(); err != nil {
		return 0, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("database handle: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	middleware.Logger.DebugContext(ctx, "database schema version", slog.Int64("version", version))
	return version, nil
}
