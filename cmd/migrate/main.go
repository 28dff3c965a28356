package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/config"
	"github.com/bright-dela/alx-project-nexus/internal/database"
	_ "github.com/lib/pq"
)

func main() {
	timeout := flag.Duration("timeout", 2*time.Minute, "maximum time for the migration run")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate [-timeout 2m] up|down|status\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	command := flag.Arg(0)
	switch command {
	case "up", "down", "status":
	default:
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("failed to reach database", slog.Any("error", err))
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, sqlDB, command); err != nil {
		logger.Error("migration failed", slog.String("command", command), slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("migration finished", slog.String("command", command))
}
