// Package rescore holds the extracted resume text cache and the batch
// rescorer that recomputes matching scores after uploads and imports.
package rescore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hiretrack/jobdeck/internal/extract"
	"github.com/hiretrack/jobdeck/internal/metrics"
	"github.com/hiretrack/jobdeck/internal/store"
)

// ResumeSource is the slice of the store the cache needs.
type ResumeSource interface {
	ActiveResume(ctx context.Context) (*store.Resume, error)
}

// Extractor converts a stored file into text. The bool is false when no
// text is available. Swappable in tests.
type Extractor func(path string) (string, bool)

// ResumeCache holds the extracted text of the active resume so a batch of n
// jobs costs one file parse, not n. Single writer (Invalidate, called by the
// upload handler) and many readers (Text) under an RWMutex.
//
// A "no resume" outcome is cached too: repeated scoring calls must not retry
// a failing extraction until the next Invalidate. An optional Redis tier
// (keyed by resume id) lets a restarted instance skip one parse; the local
// tier stays authoritative after Invalidate since the key changes with the
// resume row.
type ResumeCache struct {
	source  ResumeSource
	extract Extractor
	rdb     *redis.Client // nil disables the Redis tier
	ttl     time.Duration

	mu     sync.RWMutex
	loaded bool
	text   string
	has    bool
}

// NewResumeCache builds a cache over the given store. rdb may be nil.
func NewResumeCache(source ResumeSource, rdb *redis.Client, ttl time.Duration) *ResumeCache {
	return &ResumeCache{
		source:  source,
		extract: extract.File,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// Text returns the active resume's extracted text. The bool reports whether
// a usable resume exists; ("", false) is the cached "no resume" state, which
// the rescorer maps to a zero score for every job.
func (c *ResumeCache) Text(ctx context.Context) (string, bool) {
	c.mu.RLock()
	if c.loaded {
		text, has := c.text, c.has
		c.mu.RUnlock()
		metrics.IncrCacheHits()
		return text, has
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded { // raced with another loader
		metrics.IncrCacheHits()
		return c.text, c.has
	}
	metrics.IncrCacheMisses()
	c.text, c.has = c.load(ctx)
	c.loaded = true
	return c.text, c.has
}

// Invalidate drops the cached text. The next Text call re-reads the active
// resume even if a previous extraction failed.
func (c *ResumeCache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.text = ""
	c.has = false
	c.mu.Unlock()
}

func (c *ResumeCache) load(ctx context.Context) (string, bool) {
	resume, err := c.source.ActiveResume(ctx)
	if err != nil {
		if err != store.ErrNotFound {
			slog.Warn("resume cache: lookup failed", slog.Any("error", err))
		}
		return "", false
	}

	key := "jobdeck:resume-text:" + resume.ID
	if c.rdb != nil {
		if text, err := c.rdb.Get(ctx, key).Result(); err == nil {
			return text, true
		}
	}

	text, ok := c.extract(resume.FilePath)
	if !ok {
		metrics.IncrExtractionFailures()
		slog.Warn("resume cache: extraction failed",
			slog.String("resume_id", resume.ID),
			slog.String("file", resume.FileName))
		return "", false
	}

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, text, c.ttl).Err(); err != nil {
			slog.Debug("resume cache: redis set failed", slog.Any("error", err))
		}
	}
	return text, true
}

// OpenRedis connects the optional Redis tier. Empty URL or an unreachable
// server disables it rather than failing startup.
func OpenRedis(ctx context.Context, redisURL string) *redis.Client {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Warn("resume cache: invalid redis URL, tier disabled", slog.Any("error", err))
		return nil
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("resume cache: redis unreachable, tier disabled", slog.Any("error", err))
		return nil
	}
	slog.Info("resume cache: redis connected", slog.String("addr", opts.Addr))
	return rdb
}
