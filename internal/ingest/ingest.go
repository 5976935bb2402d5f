// Package ingest normalizes scraped job payloads into store records.
//
// Scrapers disagree on field names and ship descriptions as raw HTML; this
// package canonicalizes both before anything touches the store or scorer.
package ingest

import (
	"errors"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/anatolykoptev/go-kit/strutil"
	"golang.org/x/net/html"

	"github.com/hiretrack/jobdeck/internal/store"
)

// maxDescriptionRunes caps stored descriptions; scraped pages occasionally
// ship entire career-site boilerplate.
const maxDescriptionRunes = 20000

// ErrMissingTitle rejects payloads without a usable title.
var ErrMissingTitle = errors.New("ingest: job title is required")

// RawJob is one incoming posting. Alternate json names cover the field
// spellings used by the known scrapers (title/job_title, link/apply_link,
// date_posted/posted_at).
type RawJob struct {
	JobID       string `json:"job_id"`
	Title       string `json:"job_title"`
	AltTitle    string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Salary      string `json:"salary"`
	Description string `json:"description"`
	ApplyLink   string `json:"apply_link"`
	AltLink     string `json:"link"`
	SearchKey   string `json:"search_key"`
	PostedAt    string `json:"posted_at"`
	AltPostedAt string `json:"date_posted"`
	Source      string `json:"source"`
}

// Normalize converts a raw payload into a store record, filling the dedup
// key. now stamps postings without a posted time.
func Normalize(raw RawJob, now time.Time) (*store.JobPosting, error) {
	title := strings.TrimSpace(firstNonEmpty(raw.Title, raw.AltTitle))
	if title == "" {
		return nil, ErrMissingTitle
	}

	j := &store.JobPosting{
		JobID:       strings.TrimSpace(raw.JobID),
		Title:       title,
		Company:     strings.TrimSpace(raw.Company),
		Location:    strings.TrimSpace(raw.Location),
		Salary:      strings.TrimSpace(raw.Salary),
		Description: NormalizeDescription(raw.Description),
		ApplyLink:   strings.TrimSpace(firstNonEmpty(raw.ApplyLink, raw.AltLink)),
		SearchKey:   strings.TrimSpace(raw.SearchKey),
		Source:      strings.TrimSpace(raw.Source),
		Status:      store.DefaultStatus,
	}

	if posted := firstNonEmpty(raw.PostedAt, raw.AltPostedAt); posted != "" {
		if t, err := parseTime(posted); err == nil {
			j.PostedAt = t.UTC()
		}
	}
	if j.PostedAt.IsZero() {
		j.PostedAt = now.UTC()
	}

	j.DedupKey = DedupKey(j)
	return j, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized time format")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// DedupKey returns the deduplication key for a posting: the externally
// supplied job id when present, otherwise a canonical composite of apply
// link, title, company, location and posted time. The composite is
// normalized (lowercased, punctuation collapsed) so the same job arriving
// from two scrapers with cosmetic differences dedups to one row.
func DedupKey(j *store.JobPosting) string {
	if j.JobID != "" {
		return "id|" + j.JobID
	}
	return strings.Join([]string{
		canonical(j.ApplyLink),
		canonical(j.Title),
		canonical(j.Company),
		canonical(j.Location),
		j.PostedAt.UTC().Format(time.RFC3339),
	}, "|")
}

// canonical lowercases s and collapses every non-alphanumeric run to a
// single space.
func canonical(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prevSpace := true
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevSpace = false
		} else if !prevSpace {
			b.WriteByte(' ')
			prevSpace = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// NormalizeDescription trims a description and converts HTML-looking input
// to markdown so stored text is readable and tokenizes cleanly. Conversion
// failures keep the original text; a description is never lost over markup.
func NormalizeDescription(desc string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return ""
	}
	if looksLikeHTML(desc) {
		if md, err := htmltomarkdown.ConvertString(desc); err == nil {
			desc = strings.TrimSpace(md)
		}
	}
	return strutil.TruncateWith(desc, maxDescriptionRunes, "")
}

// looksLikeHTML reports whether s contains at least one real element tag.
// Tokenizing beats substring checks: "salary < 100k > 80k" has angle
// brackets but no tags.
func looksLikeHTML(s string) bool {
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			return true
		}
	}
}
