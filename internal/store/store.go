// Package store persists job postings and resume records.
//
// Two backends exist: a zero-config SQLite file (the default) and Postgres,
// selected when DATABASE_URL is set. Both enforce the same invariants:
// postings are unique by dedup key, at most one resume is active, and
// matching scores stay within [0,100].
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is returned when inserting a posting whose dedup key exists.
var ErrDuplicate = errors.New("store: duplicate posting")

// JobPosting is a stored job record. MatchScore is mutated only by the
// rescorer; Status only by user action.
type JobPosting struct {
	ID          int64     `json:"id"`
	JobID       string    `json:"job_id,omitempty"`
	DedupKey    string    `json:"-"`
	Title       string    `json:"job_title"`
	Company     string    `json:"company,omitempty"`
	Location    string    `json:"location,omitempty"`
	Salary      string    `json:"salary,omitempty"`
	Description string    `json:"description,omitempty"`
	ApplyLink   string    `json:"apply_link,omitempty"`
	SearchKey   string    `json:"search_key,omitempty"`
	PostedAt    time.Time `json:"posted_at,omitempty"`
	Source      string    `json:"source,omitempty"`
	Status      string    `json:"status"`
	MatchScore  float64   `json:"matching_score"`
	CreatedAt   time.Time `json:"created_at"`
}

// DefaultStatus is the status assigned to newly imported postings.
const DefaultStatus = "Not Applied"

// Resume is an uploaded resume file. At most one row is active; uploading
// deactivates all others in the same transaction.
type Resume struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"-"`
	UploadedAt time.Time `json:"uploaded_at"`
	Active     bool      `json:"active"`
}

// JobFilter narrows ListJobs. Zero values mean "no constraint".
type JobFilter struct {
	PostedAfter time.Time
	Source      string
	Status      string
	Limit       int // defaults to MaxListLimit
}

// MaxListLimit caps a single listing query.
const MaxListLimit = 500

// Company is a distinct employer with a careers link, for the companies view.
type Company struct {
	Name       string `json:"company_name"`
	CareerSite string `json:"career_site_url"`
}

// Store is the persistence contract shared by the SQLite and Postgres
// backends.
type Store interface {
	// InsertJob stores a new posting and fills in its ID and CreatedAt.
	// Returns ErrDuplicate when the dedup key is already present.
	InsertJob(ctx context.Context, j *JobPosting) error
	GetJob(ctx context.Context, id int64) (*JobPosting, error)
	ListJobs(ctx context.Context, f JobFilter) ([]JobPosting, error)
	// AllJobs returns every posting, for batch rescoring.
	AllJobs(ctx context.Context) ([]JobPosting, error)
	// UpdateJobStatus changes the status label only. Never touches the score.
	UpdateJobStatus(ctx context.Context, id int64, status string) error
	// UpdateJobScore writes a recomputed matching score.
	UpdateJobScore(ctx context.Context, id int64, score float64) error
	Sources(ctx context.Context) ([]string, error)
	Companies(ctx context.Context) ([]Company, error)

	// InsertResume stores a new resume and makes it the single active one,
	// deactivating all others atomically.
	InsertResume(ctx context.Context, r *Resume) error
	// ActiveResume returns the current active resume, newest first as a
	// tiebreak, or ErrNotFound when none was ever uploaded.
	ActiveResume(ctx context.Context) (*Resume, error)

	Close() error
}
