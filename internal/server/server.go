// Package server exposes the JSON API over fiber.
package server

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/hiretrack/jobdeck/internal/metrics"
	"github.com/hiretrack/jobdeck/internal/rescore"
	"github.com/hiretrack/jobdeck/internal/store"
)

// Config carries the handler settings injected from main.
type Config struct {
	APIKey         string // empty disables import auth
	UploadDir      string
	MaxUploadBytes int
	ImportPerSec   float64
	ImportBurst    int
}

// Server holds the handlers' dependencies.
type Server struct {
	store         store.Store
	cache         *rescore.ResumeCache
	rescorer      *rescore.Rescorer
	cfg           Config
	importLimiter *rate.Limiter
}

// New builds a server over the given store, cache and rescorer.
func New(st store.Store, cache *rescore.ResumeCache, rescorer *rescore.Rescorer, cfg Config) *Server {
	if cfg.ImportPerSec <= 0 {
		cfg.ImportPerSec = 5
	}
	if cfg.ImportBurst <= 0 {
		cfg.ImportBurst = 10
	}
	return &Server{
		store:         st,
		cache:         cache,
		rescorer:      rescorer,
		cfg:           cfg,
		importLimiter: rate.NewLimiter(rate.Limit(cfg.ImportPerSec), cfg.ImportBurst),
	}
}

// App builds the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             s.cfg.MaxUploadBytes,
		DisableStartupMessage: true,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendString(metrics.Format()) })

	app.Post("/api/jobs/import", s.handleImport)
	app.Get("/api/jobs", s.handleListJobs)
	app.Get("/api/jobs/sources", s.handleSources)
	app.Get("/api/jobs/:id", s.handleGetJob)
	app.Get("/api/jobs/:id/match", s.handleJobMatch)
	app.Post("/api/jobs/:id/status", s.handleUpdateStatus)
	app.Post("/api/jobs/:id/apply", s.handleMarkApplied)
	app.Get("/api/companies", s.handleCompanies)

	app.Post("/api/resume", s.handleUploadResume)
	app.Get("/api/resume/active", s.handleActiveResume)

	return app
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}
