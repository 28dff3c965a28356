package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrate applies all pending migrations using the pool's connection settings.
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDB(*db.Pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := RunMigrations(ctx, sqlDB, "up"); err != nil {
		return err
	}

	db.logger.Info("database migrations applied")
	return nil
}

// RunMigrations runs a goose command ("up", "down", "status", "reset")
// against the embedded migration set.
func RunMigrations(ctx context.Context, sqlDB *sql.DB, command string) error {
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	return nil
}

// SilenceMigrationLogs routes goose output through the given logger at debug level.
func SilenceMigrationLogs(logger *slog.Logger) {
	goose.SetLogger(gooseLogger{logger: logger})
}

type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}
