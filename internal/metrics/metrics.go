// Package metrics tracks operational counters across the service.
package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

var counters struct {
	ImportRequests     atomic.Int64
	ImportedJobs       atomic.Int64
	DuplicateJobs      atomic.Int64
	RejectedJobs       atomic.Int64
	ResumeUploads      atomic.Int64
	RescorePasses      atomic.Int64
	RescoredJobs       atomic.Int64
	ExtractionFailures atomic.Int64
	CacheHits          atomic.Int64
	CacheMisses        atomic.Int64
}

func IncrImportRequests() { counters.ImportRequests.Add(1) }
func AddImportedJobs(n int) { counters.ImportedJobs.Add(int64(n)) }
func AddDuplicateJobs(n int) { counters.DuplicateJobs.Add(int64(n)) }
func AddRejectedJobs(n int) { counters.RejectedJobs.Add(int64(n)) }
func IncrResumeUploads() { counters.ResumeUploads.Add(1) }
func IncrRescorePasses() { counters.RescorePasses.Add(1) }
func AddRescoredJobs(n int) { counters.RescoredJobs.Add(int64(n)) }
func IncrExtractionFailures() { counters.ExtractionFailures.Add(1) }
func IncrCacheHits() { counters.CacheHits.Add(1) }
func IncrCacheMisses() { counters.CacheMisses.Add(1) }

// Get returns a snapshot of all counters.
func Get() map[string]int64 {
	return map[string]int64{
		"import_requests":     counters.ImportRequests.Load(),
		"imported_jobs":       counters.ImportedJobs.Load(),
		"duplicate_jobs":      counters.DuplicateJobs.Load(),
		"rejected_jobs":       counters.RejectedJobs.Load(),
		"resume_uploads":      counters.ResumeUploads.Load(),
		"rescore_passes":      counters.RescorePasses.Load(),
		"rescored_jobs":       counters.RescoredJobs.Load(),
		"extraction_failures": counters.ExtractionFailures.Load(),
		"cache_hits":          counters.CacheHits.Load(),
		"cache_misses":        counters.CacheMisses.Load(),
	}
}

// Format renders the counters as plain text for the /metrics endpoint.
func Format() string {
	m := Get()
	keys := []string{
		"import_requests", "imported_jobs", "duplicate_jobs", "rejected_jobs",
		"resume_uploads", "rescore_passes", "rescored_jobs",
		"extraction_failures", "cache_hits", "cache_misses",
	}
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}
