package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/hiretrack/jobdeck/internal/store"
)

var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func TestNormalize_Basic(t *testing.T) {
	j, err := Normalize(RawJob{
		JobID:     "ext-42",
		Title:     "Senior Go Developer",
		Company:   "  Stripe ",
		Location:  "Remote",
		ApplyLink: "https://stripe.com/jobs/42",
		PostedAt:  "2026-08-30T12:00:00Z",
		Source:    "hiring.cafe",
	}, testNow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if j.Company != "Stripe" {
		t.Errorf("company = %q, want trimmed", j.Company)
	}
	if j.Status != store.DefaultStatus {
		t.Errorf("status = %q, want %q", j.Status, store.DefaultStatus)
	}
	if j.DedupKey != "id|ext-42" {
		t.Errorf("dedup key = %q", j.DedupKey)
	}
	want := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if !j.PostedAt.Equal(want) {
		t.Errorf("posted = %v, want %v", j.PostedAt, want)
	}
}

func TestNormalize_AlternateFieldNames(t *testing.T) {
	j, err := Normalize(RawJob{
		AltTitle:    "Backend Engineer",
		AltLink:     "https://example.com/apply",
		AltPostedAt: "2026-08-29",
	}, testNow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if j.Title != "Backend Engineer" {
		t.Errorf("title = %q", j.Title)
	}
	if j.ApplyLink != "https://example.com/apply" {
		t.Errorf("apply link = %q", j.ApplyLink)
	}
	if j.PostedAt != time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC) {
		t.Errorf("posted = %v", j.PostedAt)
	}
}

func TestNormalize_MissingTitle(t *testing.T) {
	if _, err := Normalize(RawJob{Company: "Acme"}, testNow); err != ErrMissingTitle {
		t.Errorf("err = %v, want ErrMissingTitle", err)
	}
}

func TestNormalize_UnparseablePostedAtFallsBackToNow(t *testing.T) {
	j, err := Normalize(RawJob{Title: "Dev", PostedAt: "yesterday-ish"}, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if !j.PostedAt.Equal(testNow) {
		t.Errorf("posted = %v, want now fallback %v", j.PostedAt, testNow)
	}
}

func TestDedupKey_CompositeNormalization(t *testing.T) {
	a := &store.JobPosting{
		Title:     "Senior Go-Developer",
		Company:   "Acme, Inc.",
		Location:  "Berlin",
		ApplyLink: "https://ACME.example/jobs/1",
		PostedAt:  testNow,
	}
	b := &store.JobPosting{
		Title:     "senior go developer",
		Company:   "acme inc",
		Location:  "berlin",
		ApplyLink: "https://acme.example/jobs/1",
		PostedAt:  testNow,
	}
	if DedupKey(a) != DedupKey(b) {
		t.Errorf("cosmetic differences must dedup:\n a=%q\n b=%q", DedupKey(a), DedupKey(b))
	}

	c := &store.JobPosting{Title: "senior go developer", Company: "other corp", PostedAt: testNow}
	if DedupKey(a) == DedupKey(c) {
		t.Error("different companies must not collide")
	}
}

func TestDedupKey_ExternalIDWins(t *testing.T) {
	a := &store.JobPosting{JobID: "x1", Title: "A"}
	b := &store.JobPosting{JobID: "x1", Title: "completely different"}
	if DedupKey(a) != DedupKey(b) {
		t.Error("same external id must dedup regardless of other fields")
	}
}

func TestNormalizeDescription_HTML(t *testing.T) {
	got := NormalizeDescription(`<h2>About</h2><p>We use <strong>Go</strong> and Kubernetes.</p>`)
	if strings.Contains(got, "<") {
		t.Errorf("tags survived: %q", got)
	}
	if !strings.Contains(got, "Go") || !strings.Contains(got, "Kubernetes") {
		t.Errorf("text lost: %q", got)
	}
}

func TestNormalizeDescription_PlainTextUntouched(t *testing.T) {
	in := "We pay salary < 100k > 80k. Stack: Go, Postgres."
	if got := NormalizeDescription(in); got != in {
		t.Errorf("plain text changed: %q -> %q", in, got)
	}
}

func TestNormalizeDescription_Empty(t *testing.T) {
	if got := NormalizeDescription("   "); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestTimeframeCutoff(t *testing.T) {
	tests := []struct {
		in     string
		wantOK bool
		want   time.Time
	}{
		{"24h", true, testNow.Add(-24 * time.Hour)},
		{"LAST24HOURS", true, testNow.Add(-24 * time.Hour)},
		{"3d", true, testNow.AddDate(0, 0, -3)},
		{"72h", true, testNow.AddDate(0, 0, -3)},
		{"5d", true, testNow.AddDate(0, 0, -5)},
		{"recent", false, time.Time{}},
		{"", false, time.Time{}},
		{"1y", false, time.Time{}},
	}
	for _, tc := range tests {
		got, ok := TimeframeCutoff(tc.in, testNow)
		if ok != tc.wantOK || !got.Equal(tc.want) {
			t.Errorf("TimeframeCutoff(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
