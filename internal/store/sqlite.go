package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is the default, zero-config backend backed by a single db file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file under dir.
func OpenSQLite(dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	dbPath := filepath.Join(dir, "jobdeck.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id      TEXT,
			dedup_key   TEXT NOT NULL UNIQUE,
			title       TEXT NOT NULL,
			company     TEXT,
			location    TEXT,
			salary      TEXT,
			description TEXT,
			apply_link  TEXT,
			search_key  TEXT,
			posted_at   TEXT,
			source      TEXT,
			status      TEXT NOT NULL DEFAULT 'Not Applied',
			match_score REAL NOT NULL DEFAULT 0 CHECK (match_score >= 0 AND match_score <= 100),
			created_at  TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS resumes (
			id          TEXT PRIMARY KEY,
			file_name   TEXT NOT NULL,
			file_path   TEXT NOT NULL,
			uploaded_at TEXT NOT NULL,
			active      INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_posted_at ON jobs(posted_at);
		CREATE INDEX IF NOT EXISTS idx_resumes_active ON resumes(active, uploaded_at);
	`)
	return err
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) InsertJob(ctx context.Context, j *JobPosting) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (job_id, dedup_key, title, company, location, salary, description,
		                   apply_link, search_key, posted_at, source, status, match_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullStr(j.JobID), j.DedupKey, j.Title, nullStr(j.Company), nullStr(j.Location),
		nullStr(j.Salary), nullStr(j.Description), nullStr(j.ApplyLink), nullStr(j.SearchKey),
		nullTime(j.PostedAt), nullStr(j.Source), statusOrDefault(j.Status), j.MatchScore,
		now.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("store: insert job: %w", err)
	}
	id, _ := res.LastInsertId()
	j.ID = id
	j.CreatedAt = now
	if j.Status == "" {
		j.Status = DefaultStatus
	}
	return nil
}

const jobColumns = `id, job_id, dedup_key, title, company, location, salary, description,
	apply_link, search_key, posted_at, source, status, match_score, created_at`

func (s *SQLite) GetJob(ctx context.Context, id int64) (*JobPosting, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get job: %w", err)
	}
	return j, nil
}

func (s *SQLite) ListJobs(ctx context.Context, f JobFilter) ([]JobPosting, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	var conds []string
	var args []any
	if !f.PostedAfter.IsZero() {
		conds = append(conds, `posted_at >= ?`)
		args = append(args, f.PostedAfter.UTC().Format(time.RFC3339))
	}
	if f.Source != "" {
		conds = append(conds, `source = ?`)
		args = append(args, f.Source)
	}
	if f.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, f.Status)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	limit := f.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	query += ` ORDER BY COALESCE(posted_at, created_at) DESC, created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (s *SQLite) AllJobs(ctx context.Context) ([]JobPosting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: all jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (s *SQLite) UpdateJobStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("store: update status: %w", err)
	}
	return requireRow(res)
}

func (s *SQLite) UpdateJobScore(ctx context.Context, id int64, score float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET match_score = ? WHERE id = ?`, score, id)
	if err != nil {
		return fmt.Errorf("store: update score: %w", err)
	}
	return requireRow(res)
}

func (s *SQLite) Sources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT source FROM jobs WHERE source IS NOT NULL AND source != '' ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("store: sources: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

func (s *SQLite) Companies(ctx context.Context) ([]Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT company, MIN(apply_link) FROM jobs
		 WHERE company IS NOT NULL AND company != '' AND apply_link IS NOT NULL AND apply_link != ''
		 GROUP BY company ORDER BY company`)
	if err != nil {
		return nil, fmt.Errorf("store: companies: %w", err)
	}
	defer rows.Close()
	var out []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.Name, &c.CareerSite); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) InsertResume(ctx context.Context, r *Resume) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `UPDATE resumes SET active = 0 WHERE active = 1`); err != nil {
		return fmt.Errorf("store: deactivate resumes: %w", err)
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO resumes (id, file_name, file_path, uploaded_at, active) VALUES (?, ?, ?, ?, 1)`,
		r.ID, r.FileName, r.FilePath, now.Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("store: insert resume: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	r.UploadedAt = now
	r.Active = true
	return nil
}

func (s *SQLite) ActiveResume(ctx context.Context) (*Resume, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, file_path, uploaded_at, active FROM resumes
		 WHERE active = 1 ORDER BY uploaded_at DESC LIMIT 1`)
	var r Resume
	var uploaded string
	var active int
	err := row.Scan(&r.ID, &r.FileName, &r.FilePath, &uploaded, &active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: active resume: %w", err)
	}
	r.UploadedAt, _ = time.Parse(time.RFC3339, uploaded)
	r.Active = active == 1
	return &r, nil
}

// --- scan helpers shared with the sqlite backend ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*JobPosting, error) {
	var j JobPosting
	var jobID, company, location, salary, description, applyLink, searchKey, postedAt, source sql.NullString
	var createdAt string
	if err := row.Scan(&j.ID, &jobID, &j.DedupKey, &j.Title, &company, &location, &salary,
		&description, &applyLink, &searchKey, &postedAt, &source, &j.Status, &j.MatchScore,
		&createdAt); err != nil {
		return nil, err
	}
	j.JobID = jobID.String
	j.Company = company.String
	j.Location = location.String
	j.Salary = salary.String
	j.Description = description.String
	j.ApplyLink = applyLink.String
	j.SearchKey = searchKey.String
	j.Source = source.String
	if postedAt.Valid {
		j.PostedAt, _ = time.Parse(time.RFC3339, postedAt.String)
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &j, nil
}

func collectJobs(rows *sql.Rows) ([]JobPosting, error) {
	jobs := []JobPosting{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func statusOrDefault(s string) string {
	if s == "" {
		return DefaultStatus
	}
	return s
}
