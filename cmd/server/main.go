// Package main is the entry point for the playtrack API server.
//
// The main package stays minimal. It reads configuration, opens the
// infrastructure (SQLite, the optional Redis cache, the catalog clients) and
// hands everything to internal/server, which does the actual wiring.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/playtrack/internal/auth"
	"github.com/sakif/playtrack/internal/catalog"
	"github.com/sakif/playtrack/internal/catalog/igdb"
	"github.com/sakif/playtrack/internal/catalog/rawg"
	"github.com/sakif/playtrack/internal/config"
	"github.com/sakif/playtrack/internal/metrics"
	sqliteRepo "github.com/sakif/playtrack/internal/repository/sqlite"
	"github.com/sakif/playtrack/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// JWT_SECRET should be a long random string:
	//   JWT_SECRET=$(openssl rand -hex 32)
	// Without one we generate a throwaway secret, so every restart logs
	// everybody out.
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = randomSecret()
		logger.Warn("JWT_SECRET not set, using an ephemeral secret")
	}

	// === 2. DATABASE ===
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. CATALOG ===
	// RAWG materializes games. Redis, when configured, caches its answers.
	// IGDB is optional and only adds screenshots and storylines.
	m := metrics.New()

	rdb, err := catalog.NewRedis(context.Background(), cfg.Redis, logger)
	if err != nil {
		logger.Warn("catalog cache disabled", slog.String("error", err.Error()))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	if cfg.Catalog.RAWGAPIKey == "" {
		logger.Warn("RAWG_API_KEY not set, new games cannot be added from the catalog")
	}
	rawgClient := rawg.NewClient(cfg.Catalog.RAWGAPIKey, cfg.Catalog.RAWGBaseURL, cfg.Catalog.Timeout, logger, m)
	lookup := catalog.NewCachedLookup(rawgClient, rdb, cfg.Catalog.CacheTTL, logger, m)

	var enricher catalog.Enricher
	if cfg.Catalog.IGDBEnabled() {
		enricher = igdb.NewClient(igdb.Config{
			ClientID:     cfg.Catalog.TwitchClientID,
			ClientSecret: cfg.Catalog.TwitchClientSecret,
			Timeout:      cfg.Catalog.Timeout,
		}, logger, m)
	} else {
		logger.Info("IGDB credentials not set, game enrichment disabled")
	}

	// === 4. AUTH ===
	github := auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
	if !github.Enabled() {
		logger.Info("GitHub OAuth not configured, only password login is available")
	}

	// === 5. SERVER ===
	srv, err := server.New(cfg, server.Deps{
		DB:        db,
		Catalog:   lookup,
		Enricher:  enricher,
		GitHub:    github,
		Passwords: auth.NewPasswordService(),
		Metrics:   m,
	}, logger)
	if err != nil {
		db.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
