package ingest

import (
	"strings"
	"time"
)

// TimeframeCutoff maps a listing timeframe label to a posted-after cutoff.
// Returns false for "recent"/empty/unknown labels, meaning no cutoff.
// Aliases match what the known dashboard clients send.
func TimeframeCutoff(timeframe string, now time.Time) (time.Time, bool) {
	switch strings.ToLower(strings.TrimSpace(timeframe)) {
	case "24h", "last24", "last24h", "last24hrs", "last24hours":
		return now.Add(-24 * time.Hour), true
	case "3d", "72h", "past3days":
		return now.AddDate(0, 0, -3), true
	case "5d", "past5days":
		return now.AddDate(0, 0, -5), true
	}
	return time.Time{}, false
}
