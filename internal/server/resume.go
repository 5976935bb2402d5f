package server

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/hiretrack/jobdeck/internal/extract"
	"github.com/hiretrack/jobdeck/internal/metrics"
	"github.com/hiretrack/jobdeck/internal/store"
)

// handleUploadResume accepts a multipart resume upload, makes it the single
// active resume and rescores every stored posting before responding.
func (s *Server) handleUploadResume(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "missing file field")
	}
	if s.cfg.MaxUploadBytes > 0 && fh.Size > int64(s.cfg.MaxUploadBytes) {
		return fail(c, fiber.StatusRequestEntityTooLarge, "file too large")
	}
	kind := extract.KindOf(fh.Filename)
	if kind == extract.KindOther {
		return fail(c, fiber.StatusBadRequest, "unsupported file type, use .pdf, .docx or .txt")
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		slog.Error("create upload dir", slog.String("dir", s.cfg.UploadDir), slog.Any("error", err))
		return fail(c, fiber.StatusInternalServerError, "unable to store file")
	}
	id := uuid.NewString()
	dst := filepath.Join(s.cfg.UploadDir, id+strings.ToLower(filepath.Ext(fh.Filename)))
	if err := c.SaveFile(fh, dst); err != nil {
		slog.Error("save resume", slog.String("path", dst), slog.Any("error", err))
		return fail(c, fiber.StatusInternalServerError, "unable to store file")
	}

	// Reject broken PDFs up front instead of caching an extraction failure.
	if kind == extract.KindPDF {
		pages, err := api.PageCountFile(dst)
		if err != nil || pages < 1 {
			_ = os.Remove(dst)
			return fail(c, fiber.StatusBadRequest, "invalid or empty PDF")
		}
	}

	r := &store.Resume{
		ID:       id,
		FileName: fh.Filename,
		FilePath: dst,
	}
	if err := s.store.InsertResume(c.Context(), r); err != nil {
		_ = os.Remove(dst)
		slog.Error("insert resume", slog.Any("error", err))
		return fail(c, fiber.StatusInternalServerError, "unable to save resume")
	}
	metrics.IncrResumeUploads()
	s.cache.Invalidate()

	// The resume row and cache invalidation stand even when scoring fails:
	// the next pass scores against the new resume, never the old one.
	rescored, err := s.rescorer.RescoreAll(c.Context())
	if err != nil {
		slog.Error("rescore after upload failed", slog.Any("error", err))
		return fail(c, fiber.StatusInternalServerError, "resume stored but scoring failed")
	}
	slog.Info("resume uploaded",
		slog.String("id", r.ID),
		slog.String("file", r.FileName),
		slog.Int("rescored", rescored))

	return c.JSON(fiber.Map{
		"success":  true,
		"resume":   r,
		"rescored": rescored,
	})
}

func (s *Server) handleActiveResume(c *fiber.Ctx) error {
	r, err := s.store.ActiveResume(c.Context())
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(fiber.Map{"has_resume": false})
	}
	if err != nil {
		slog.Error("load active resume", slog.Any("error", err))
		return fail(c, fiber.StatusInternalServerError, "unable to load resume")
	}
	return c.JSON(fiber.Map{"has_resume": true, "resume": r})
}
