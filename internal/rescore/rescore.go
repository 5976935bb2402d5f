package rescore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hiretrack/jobdeck/internal/match"
	"github.com/hiretrack/jobdeck/internal/metrics"
	"github.com/hiretrack/jobdeck/internal/store"
)

// ScoreWriter is the slice of the store the rescorer writes through.
type ScoreWriter interface {
	UpdateJobScore(ctx context.Context, id int64, score float64) error
	AllJobs(ctx context.Context) ([]store.JobPosting, error)
}

// Rescorer recomputes matching scores for batches of postings against one
// resume snapshot.
type Rescorer struct {
	store ScoreWriter
	cache *ResumeCache
}

// NewRescorer builds a rescorer over the given store and cache.
func NewRescorer(s ScoreWriter, cache *ResumeCache) *Rescorer {
	return &Rescorer{store: s, cache: cache}
}

// Rescore recomputes and persists the matching score of each posting,
// mutating MatchScore in place.
//
// The resume text is captured once at the start: every job in the pass is
// scored against the same snapshot even if an upload lands mid-pass. With no
// resume available every score is set to exactly 0 — the explicit "no
// resume" signal, not a skip. Context cancellation stops between jobs; a job
// either gets its new score in one UPDATE or keeps its previous one.
func (r *Rescorer) Rescore(ctx context.Context, jobs []store.JobPosting) error {
	if len(jobs) == 0 {
		return nil
	}
	metrics.IncrRescorePasses()
	start := time.Now()

	resumeText, hasResume := r.cache.Text(ctx)
	resumeTokens := match.Tokenize(resumeText)

	done := 0
	for i := range jobs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("rescore: aborted after %d/%d jobs: %w", done, len(jobs), err)
		}

		var score float64
		if hasResume {
			score, _ = match.Score(resumeTokens, match.JobFields{
				Title:       jobs[i].Title,
				Company:     jobs[i].Company,
				Location:    jobs[i].Location,
				Description: jobs[i].Description,
				SearchKey:   jobs[i].SearchKey,
			})
		}
		if err := r.store.UpdateJobScore(ctx, jobs[i].ID, score); err != nil {
			return fmt.Errorf("rescore: job %d: %w", jobs[i].ID, err)
		}
		jobs[i].MatchScore = score
		done++
	}

	metrics.AddRescoredJobs(done)
	slog.Info("rescore pass complete",
		slog.Int("jobs", done),
		slog.Bool("has_resume", hasResume),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// RescoreAll runs Rescore over every stored posting. Used after a resume
// upload, when every score is stale at once.
func (r *Rescorer) RescoreAll(ctx context.Context) (int, error) {
	jobs, err := r.store.AllJobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("rescore: load jobs: %w", err)
	}
	if err := r.Rescore(ctx, jobs); err != nil {
		return 0, err
	}
	return len(jobs), nil
}
