package server

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hiretrack/jobdeck/internal/ingest"
	"github.com/hiretrack/jobdeck/internal/match"
	"github.com/hiretrack/jobdeck/internal/metrics"
	"github.com/hiretrack/jobdeck/internal/store"
)

// handleImport ingests a batch of scraped postings. Newly inserted jobs are
// rescored synchronously so they are never visible with a default zero.
func (s *Server) handleImport(c *fiber.Ctx) error {
	if s.cfg.APIKey != "" && c.Get("X-API-Key") != s.cfg.APIKey {
		return fail(c, fiber.StatusUnauthorized, "invalid API key")
	}
	if !s.importLimiter.Allow() {
		return fail(c, fiber.StatusTooManyRequests, "import rate exceeded, retry later")
	}
	metrics.IncrImportRequests()

	var payload []ingest.RawJob
	if err := c.BodyParser(&payload); err != nil {
		// Some scrapers post a single object instead of an array.
		var one ingest.RawJob
		if err := c.BodyParser(&one); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid or missing JSON payload")
		}
		payload = []ingest.RawJob{one}
	}
	if len(payload) == 0 {
		return fail(c, fiber.StatusBadRequest, "request body is empty")
	}

	ctx := c.Context()
	now := time.Now()
	var inserted []store.JobPosting
	skipped, rejected := 0, 0

	for _, raw := range payload {
		j, err := ingest.Normalize(raw, now)
		if err != nil {
			rejected++
			slog.Warn("import: rejected posting", slog.String("job_id", raw.JobID), slog.Any("error", err))
			continue
		}
		if err := s.store.InsertJob(ctx, j); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				skipped++
				continue
			}
			return fail(c, fiber.StatusInternalServerError, "unable to store postings")
		}
		inserted = append(inserted, *j)
	}

	if err := s.rescorer.Rescore(ctx, inserted); err != nil {
		slog.Error("import: rescore failed", slog.Any("error", err))
		return fail(c, fiber.StatusInternalServerError, "postings stored but scoring failed")
	}

	metrics.AddImportedJobs(len(inserted))
	metrics.AddDuplicateJobs(skipped)
	metrics.AddRejectedJobs(rejected)
	slog.Info("import complete",
		slog.Int("inserted", len(inserted)),
		slog.Int("skipped", skipped),
		slog.Int("rejected", rejected))

	return c.JSON(fiber.Map{
		"success":  true,
		"inserted": len(inserted),
		"skipped":  skipped,
		"rejected": rejected,
	})
}

// handleListJobs returns postings with their persisted scores; nothing is
// recomputed here.
func (s *Server) handleListJobs(c *fiber.Ctx) error {
	filter := store.JobFilter{
		Source: c.Query("source"),
		Status: c.Query("status"),
	}
	if cutoff, ok := ingest.TimeframeCutoff(c.Query("timeframe"), time.Now()); ok {
		filter.PostedAfter = cutoff
	}

	ctx := c.Context()
	jobs, err := s.store.ListJobs(ctx, filter)
	if err != nil {
		slog.Error("list jobs failed", slog.Any("error", err))
		return fail(c, fiber.StatusInternalServerError, "unable to list postings")
	}

	_, hasResume := s.cache.Text(ctx)
	return c.JSON(fiber.Map{"jobs": jobs, "has_resume": hasResume})
}

// jobFromParam loads the posting named by the :id route param. On failure
// the error response is already written and ok is false.
func (s *Server) jobFromParam(c *fiber.Ctx) (*store.JobPosting, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		_ = fail(c, fiber.StatusBadRequest, "invalid job id")
		return nil, false
	}
	j, err := s.store.GetJob(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		_ = fail(c, fiber.StatusNotFound, "job not found")
		return nil, false
	}
	if err != nil {
		_ = fail(c, fiber.StatusInternalServerError, "unable to load job")
		return nil, false
	}
	return j, true
}

func (s *Server) handleGetJob(c *fiber.Ctx) error {
	j, ok := s.jobFromParam(c)
	if !ok {
		return nil
	}
	return c.JSON(j)
}

// handleJobMatch computes a query-time score with matched keywords for
// highlighting. The persisted score is untouched.
func (s *Server) handleJobMatch(c *fiber.Ctx) error {
	j, ok := s.jobFromParam(c)
	if !ok {
		return nil
	}
	resumeText, hasResume := s.cache.Text(c.Context())
	score, matched := match.ScoreText(resumeText, match.JobFields{
		Title:       j.Title,
		Company:     j.Company,
		Location:    j.Location,
		Description: j.Description,
		SearchKey:   j.SearchKey,
	})
	if matched == nil {
		matched = []string{}
	}
	return c.JSON(fiber.Map{
		"job_id":           j.ID,
		"matching_score":   score,
		"matched_keywords": matched,
		"has_resume":       hasResume,
	})
}

type statusReq struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateStatus(c *fiber.Ctx) error {
	j, ok := s.jobFromParam(c)
	if !ok {
		return nil
	}
	var req statusReq
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return fail(c, fiber.StatusBadRequest, "status is required")
	}
	if err := s.store.UpdateJobStatus(c.Context(), j.ID, req.Status); err != nil {
		return fail(c, fiber.StatusInternalServerError, "unable to update status")
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleMarkApplied(c *fiber.Ctx) error {
	j, ok := s.jobFromParam(c)
	if !ok {
		return nil
	}
	if err := s.store.UpdateJobStatus(c.Context(), j.ID, "Applied"); err != nil {
		return fail(c, fiber.StatusInternalServerError, "unable to update status")
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleSources(c *fiber.Ctx) error {
	sources, err := s.store.Sources(c.Context())
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "unable to list sources")
	}
	if sources == nil {
		sources = []string{}
	}
	return c.JSON(sources)
}

func (s *Server) handleCompanies(c *fiber.Ctx) error {
	companies, err := s.store.Companies(c.Context())
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "unable to list companies")
	}
	if companies == nil {
		companies = []store.Company{}
	}
	return c.JSON(companies)
}
