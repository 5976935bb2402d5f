package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Postgres is the pgx-backed store, used when DATABASE_URL is set.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a pgx pool and runs schema migrations.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("store: create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: run migrations: %w", err)
	}
	slog.Info("postgres connected", slog.String("host", config.ConnConfig.Host))
	return p, nil
}

func (p *Postgres) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		sqlBytes, err := schemaFS.ReadFile("schema/" + name)
		if err != nil {
			return err
		}
		if _, err := p.pool.Exec(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) InsertJob(ctx context.Context, j *JobPosting) error {
	var postedAt *time.Time
	if !j.PostedAt.IsZero() {
		t := j.PostedAt.UTC()
		postedAt = &t
	}
	err := p.pool.QueryRow(ctx,
		`INSERT INTO jobs (job_id, dedup_key, title, company, location, salary, description,
		                   apply_link, search_key, posted_at, source, status, match_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at`,
		j.JobID, j.DedupKey, j.Title, j.Company, j.Location, j.Salary, j.Description,
		j.ApplyLink, j.SearchKey, postedAt, j.Source, statusOrDefault(j.Status), j.MatchScore,
	).Scan(&j.ID, &j.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("store: insert job: %w", err)
	}
	if j.Status == "" {
		j.Status = DefaultStatus
	}
	return nil
}

const pgJobColumns = `id, COALESCE(job_id, ''), dedup_key, title, COALESCE(company, ''),
	COALESCE(location, ''), COALESCE(salary, ''), COALESCE(description, ''),
	COALESCE(apply_link, ''), COALESCE(search_key, ''), posted_at, COALESCE(source, ''),
	status, match_score, created_at`

func scanPgJob(row pgx.Row) (*JobPosting, error) {
	var j JobPosting
	var postedAt *time.Time
	if err := row.Scan(&j.ID, &j.JobID, &j.DedupKey, &j.Title, &j.Company, &j.Location,
		&j.Salary, &j.Description, &j.ApplyLink, &j.SearchKey, &postedAt, &j.Source,
		&j.Status, &j.MatchScore, &j.CreatedAt); err != nil {
		return nil, err
	}
	if postedAt != nil {
		j.PostedAt = *postedAt
	}
	return &j, nil
}

func (p *Postgres) GetJob(ctx context.Context, id int64) (*JobPosting, error) {
	j, err := scanPgJob(p.pool.QueryRow(ctx, `SELECT `+pgJobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get job: %w", err)
	}
	return j, nil
}

func (p *Postgres) ListJobs(ctx context.Context, f JobFilter) ([]JobPosting, error) {
	query := `SELECT ` + pgJobColumns + ` FROM jobs`
	var conds []string
	var args []any
	if !f.PostedAfter.IsZero() {
		args = append(args, f.PostedAfter.UTC())
		conds = append(conds, fmt.Sprintf(`posted_at >= $%d`, len(args)))
	}
	if f.Source != "" {
		args = append(args, f.Source)
		conds = append(conds, fmt.Sprintf(`source = $%d`, len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf(`status = $%d`, len(args)))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	limit := f.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY COALESCE(posted_at, created_at) DESC, created_at DESC LIMIT $%d`, len(args))

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}
	defer rows.Close()
	return collectPgJobs(rows)
}

func (p *Postgres) AllJobs(ctx context.Context) ([]JobPosting, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+pgJobColumns+` FROM jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: all jobs: %w", err)
	}
	defer rows.Close()
	return collectPgJobs(rows)
}

func collectPgJobs(rows pgx.Rows) ([]JobPosting, error) {
	jobs := []JobPosting{}
	for rows.Next() {
		j, err := scanPgJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func (p *Postgres) UpdateJobStatus(ctx context.Context, id int64, status string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE jobs SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("store: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) UpdateJobScore(ctx context.Context, id int64, score float64) error {
	tag, err := p.pool.Exec(ctx, `UPDATE jobs SET match_score = $1 WHERE id = $2`, score, id)
	if err != nil {
		return fmt.Errorf("store: update score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Sources(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx,
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

func (p *Postgres) Companies(ctx context.Context) ([]Company, error) {
	rows, err := p.pool.Query(ctx,
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

func (p *Postgres) InsertResume(ctx context.Context, r *Resume) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `UPDATE resumes SET active = false WHERE active`); err != nil {
		return fmt.Errorf("store: deactivate resumes: %w", err)
	}
	if err := tx.QueryRow(ctx,
		`INSERT INTO resumes (id, file_name, file_path, active) VALUES ($1, $2, $3, true)
		 RETURNING uploaded_at`,
		r.ID, r.FileName, r.FilePath,
	).Scan(&r.UploadedAt); err != nil {
		return fmt.Errorf("store: insert resume: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	r.Active = true
	return nil
}

func (p *Postgres) ActiveResume(ctx context.Context) (*Resume, error) {
	var r Resume
	err := p.pool.QueryRow(ctx,
		`SELECT id, file_name, file_path, uploaded_at, active FROM resumes
		 WHERE active ORDER BY uploaded_at DESC LIMIT 1`,
	).Scan(&r.ID, &r.FileName, &r.FilePath, &r.UploadedAt, &r.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: active resume: %w", err)
	}
	return &r, nil
}

// compile-time interface checks
var (
	_ Store = (*SQLite)(nil)
	_ Store = (*Postgres)(nil)
)
