// Package history persists completed call analyses: one record per batch
// analysis or finished streaming session. Persistence is optional — the
// pipeline itself never depends on a record being written.
package history

import (
	"context"
	"time"
)

// CallRecord summarises one completed analysis.
type CallRecord struct {
	// ID is the unique call identifier (UUID).
	ID string

	// SessionID links streaming-session summaries to their session; empty
	// for batch analyses.
	SessionID string

	// Filename of the uploaded recording; empty for streaming sessions.
	Filename string

	// Timestamp of the analysis.
	Timestamp time.Time

	// Score is the final 0–100 risk score.
	Score float64

	// Confidence is the confidence percentage in [60, 90]; zero for
	// streaming-session summaries, which carry no single confidence.
	Confidence float64

	// Verdict is the final verdict tier or the binary streaming verdict.
	Verdict string

	// Trend is the session trend at completion.
	Trend string

	// Analyses is the number of chunk analyses behind this record (1 for
	// batch).
	Analyses int
}

// Store persists call records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save writes one record.
	Save(ctx context.Context, rec CallRecord) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]CallRecord, error)
}
