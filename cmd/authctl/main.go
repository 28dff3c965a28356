package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/cache"
	"github.com/bright-dela/alx-project-nexus/internal/config"
	"github.com/bright-dela/alx-project-nexus/internal/database"
	"github.com/bright-dela/alx-project-nexus/internal/repositories"
	"github.com/redis/go-redis/v9"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "help" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "authctl: %v\n", err)
		os.Exit(1)
	}
	if cfg.Cache.Backend != "redis" {
		// an in-process cache belongs to the API process and cannot be reached from here
		fmt.Fprintln(os.Stderr, "authctl: CACHE_BACKEND=redis is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, cfg, logger, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "authctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	defer client.Close()

	store := cache.NewRedisStore(client, cfg.Cache.KeyPrefix)
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}

	c := &cli{
		claims:   repositories.NewSecurityClaimRepository(db),
		locks:    repositories.NewLockStore(store, cfg.Lockout.Duration),
		attempts: repositories.NewCacheAttemptCounter(store, cfg.Lockout.Duration),
		out:      os.Stdout,
	}
	return c.run(ctx, args)
}
