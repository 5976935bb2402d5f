// jobdeck — job posting tracker with resume matching.
//
// Ingests scraped postings over a JSON API, deduplicates them, and scores
// each one against the active resume with a keyword overlap score. Runs on
// a zero-config SQLite file by default; set DATABASE_URL for Postgres.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"

	"github.com/hiretrack/jobdeck/internal/rescore"
	"github.com/hiretrack/jobdeck/internal/server"
	"github.com/hiretrack/jobdeck/internal/store"
)

var version = "dev"

func main() {
	var (
		port        = env.Str("PORT", "8080")
		apiKey      = env.Str("API_KEY", "")
		dataDir     = env.Str("DATA_DIR", "./data")
		databaseURL = env.Str("DATABASE_URL", "")
		redisURL    = env.Str("REDIS_URL", "")
		uploadDir   = env.Str("UPLOAD_DIR", "./data/resumes")
		maxUpload   = env.Int("RESUME_MAX_BYTES", 10<<20)
		importRate  = env.Float("IMPORT_RATE", 5)
		importBurst = env.Int("IMPORT_BURST", 10)
		cacheTTL    = env.Duration("CACHE_TTL", 24*time.Hour)
	)

	slog.Info("starting jobdeck",
		slog.String("version", version),
		slog.String("port", port),
	)
	if apiKey == "" {
		slog.Warn("API_KEY not set, import endpoint is unauthenticated")
	}

	ctx := context.Background()

	var st store.Store
	if databaseURL != "" {
		pg, err := store.OpenPostgres(ctx, databaseURL)
		if err != nil {
			slog.Error("postgres init failed", slog.Any("error", err))
			os.Exit(1)
		}
		st = pg
		slog.Info("store ready", slog.String("backend", "postgres"))
	} else {
		sq, err := store.OpenSQLite(dataDir)
		if err != nil {
			slog.Error("sqlite init failed", slog.Any("error", err))
			os.Exit(1)
		}
		st = sq
		slog.Info("store ready", slog.String("backend", "sqlite"), slog.String("dir", dataDir))
	}
	defer st.Close()

	cache := rescore.NewResumeCache(st, rescore.OpenRedis(ctx, redisURL), cacheTTL)
	rescorer := rescore.NewRescorer(st, cache)

	srv := server.New(st, cache, rescorer, server.Config{
		APIKey:         apiKey,
		UploadDir:      uploadDir,
		MaxUploadBytes: maxUpload,
		ImportPerSec:   importRate,
		ImportBurst:    importBurst,
	})
	app := srv.App()

	go func() {
		if err := app.Listen(":" + port); err != nil {
			slog.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("shutdown failed", slog.Any("error", err))
	}
}
