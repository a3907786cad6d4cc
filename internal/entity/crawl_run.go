package entity

import "time"

// RunStatus is the lifecycle state of a crawl run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunNotFound  RunStatus = "not_found"
)

// SourceOutcome is the per-source tally of one crawl run.
type SourceOutcome struct {
	Source       Source `json:"source"`
	Found        int    `json:"found"`
	Failed       int    `json:"failed"`
	SkippedCards int    `json:"skipped_cards"`
	Rejected     int    `json:"rejected"`
	Error        string `json:"error,omitempty"`
}

// CrawlRun mirrors the `crawl_runs` PostgreSQL table schema.
type CrawlRun struct {
	ID         string
	Query      string
	Location   string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	Outcomes   []SourceOutcome // Stored as JSONB in PostgreSQL
	Candidates int
	Inserted   int
	Error      string
}

// Found sums the listings found across all sources.
func (r *CrawlRun) Found() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Found
	}
	return n
}

// FailedSources sums the sources that failed during the run.
func (r *CrawlRun) FailedSources() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Failed
	}
	return n
}

// RunRequest is a queued request to crawl one (query, location) pair.
type RunRequest struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Location    string    `json:"location"`
	Force       bool      `json:"force"`
	SubmittedAt time.Time `json:"submitted_at"`
}
