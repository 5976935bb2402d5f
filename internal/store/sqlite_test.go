package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleJob(dedup string) *JobPosting {
	return &JobPosting{
		JobID:       dedup,
		DedupKey:    dedup,
		Title:       "Senior Go Developer",
		Company:     "Stripe",
		Location:    "Remote",
		Salary:      "$180k",
		Description: "Build payment infrastructure in Go",
		ApplyLink:   "https://stripe.com/jobs/123",
		SearchKey:   "golang",
		Source:      "hiring.cafe",
		PostedAt:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestInsertJob_Basic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	j := sampleJob("j1")
	if err := s.InsertJob(ctx, j); err != nil {
		t.Fatalf("InsertJob: %v", err)
	}
	if j.ID <= 0 {
		t.Errorf("expected positive ID, got %d", j.ID)
	}
	if j.Status != DefaultStatus {
		t.Errorf("status = %q, want %q", j.Status, DefaultStatus)
	}
	if j.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := s.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Title != j.Title || got.Company != j.Company || got.SearchKey != j.SearchKey {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if !got.PostedAt.Equal(j.PostedAt) {
		t.Errorf("posted_at = %v, want %v", got.PostedAt, j.PostedAt)
	}
}

func TestInsertJob_Duplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertJob(ctx, sampleJob("dup")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := s.InsertJob(ctx, sampleJob("dup"))
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("second insert err = %v, want ErrDuplicate", err)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetJob(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListJobs_Filters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := sampleJob("old")
	old.PostedAt = now.Add(-96 * time.Hour)
	old.Source = "linkedin"
	fresh := sampleJob("fresh")
	fresh.PostedAt = now.Add(-1 * time.Hour)
	applied := sampleJob("applied")
	applied.PostedAt = now.Add(-2 * time.Hour)
	applied.Status = "Applied"

	for _, j := range []*JobPosting{old, fresh, applied} {
		if err := s.InsertJob(ctx, j); err != nil {
			t.Fatalf("insert %s: %v", j.DedupKey, err)
		}
	}

	all, err := s.ListJobs(ctx, JobFilter{})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].DedupKey != "fresh" {
		t.Errorf("expected newest first, got %q", all[0].DedupKey)
	}

	recent, err := s.ListJobs(ctx, JobFilter{PostedAfter: now.Add(-24 * time.Hour)})
	if err != nil {
		t.Fatalf("ListJobs timeframe: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("timeframe len = %d, want 2", len(recent))
	}

	bySource, err := s.ListJobs(ctx, JobFilter{Source: "linkedin"})
	if err != nil {
		t.Fatalf("ListJobs source: %v", err)
	}
	if len(bySource) != 1 || bySource[0].DedupKey != "old" {
		t.Errorf("source filter = %+v", bySource)
	}

	byStatus, err := s.ListJobs(ctx, JobFilter{Status: "Applied"})
	if err != nil {
		t.Fatalf("ListJobs status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].DedupKey != "applied" {
		t.Errorf("status filter = %+v", byStatus)
	}

	limited, err := s.ListJobs(ctx, JobFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListJobs limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit len = %d, want 1", len(limited))
	}
}

func TestUpdateJobStatus_DoesNotTouchScore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	j := sampleJob("j1")
	if err := s.InsertJob(ctx, j); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateJobScore(ctx, j.ID, 42.42); err != nil {
		t.Fatalf("UpdateJobScore: %v", err)
	}
	if err := s.UpdateJobStatus(ctx, j.ID, "Applied"); err != nil {
		t.Fatalf("UpdateJobStatus: %v", err)
	}

	got, err := s.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "Applied" {
		t.Errorf("status = %q, want Applied", got.Status)
	}
	if got.MatchScore != 42.42 {
		t.Errorf("score = %v, want 42.42 (status change must not rescore)", got.MatchScore)
	}
}

func TestUpdateJobStatus_NotFound(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpdateJobStatus(context.Background(), 12345, "Applied"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSourcesAndCompanies(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := sampleJob("a")
	a.Source = "linkedin"
	b := sampleJob("b")
	b.Source = "hiring.cafe"
	b.Company = "Acme"
	b.ApplyLink = "https://acme.example/careers"
	c := sampleJob("c")
	c.Source = ""
	c.Company = ""
	c.ApplyLink = ""
	for _, j := range []*JobPosting{a, b, c} {
		if err := s.InsertJob(ctx, j); err != nil {
			t.Fatal(err)
		}
	}

	sources, err := s.Sources(ctx)
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if len(sources) != 2 || sources[0] != "hiring.cafe" || sources[1] != "linkedin" {
		t.Errorf("sources = %v", sources)
	}

	companies, err := s.Companies(ctx)
	if err != nil {
		t.Fatalf("Companies: %v", err)
	}
	if len(companies) != 2 {
		t.Fatalf("companies = %+v, want 2", companies)
	}
	if companies[0].Name != "Acme" || companies[0].CareerSite != "https://acme.example/careers" {
		t.Errorf("companies[0] = %+v", companies[0])
	}
}

func TestInsertResume_SingleActive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.ActiveResume(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty store ActiveResume err = %v, want ErrNotFound", err)
	}

	first := &Resume{ID: "r1", FileName: "old.pdf", FilePath: "/tmp/old.pdf"}
	if err := s.InsertResume(ctx, first); err != nil {
		t.Fatalf("InsertResume first: %v", err)
	}
	second := &Resume{ID: "r2", FileName: "new.pdf", FilePath: "/tmp/new.pdf"}
	if err := s.InsertResume(ctx, second); err != nil {
		t.Fatalf("InsertResume second: %v", err)
	}

	active, err := s.ActiveResume(ctx)
	if err != nil {
		t.Fatalf("ActiveResume: %v", err)
	}
	if active.ID != "r2" {
		t.Errorf("active = %q, want r2 (upload deactivates all others)", active.ID)
	}
	if !active.Active {
		t.Error("active flag not set")
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM resumes WHERE active = 1`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("active rows = %d, want exactly 1", count)
	}
}

func TestAllJobs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		if err := s.InsertJob(ctx, sampleJob(key)); err != nil {
			t.Fatal(err)
		}
	}
	jobs, err := s.AllJobs(ctx)
	if err != nil {
		t.Fatalf("AllJobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Errorf("len = %d, want 3", len(jobs))
	}
}
