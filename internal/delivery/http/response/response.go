package response

import (
	"time"

	"github.com/user/internship-ingest/internal/entity"
)

type SubmitRunResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

// RunResponse is a DTO for a crawl run, mirroring entity.CrawlRun
type RunResponse struct {
	ID            string                 `json:"id"`
	Query         string                 `json:"query,omitempty"`
	Location      string                 `json:"location,omitempty"`
	Status        string                 `json:"status"` // "pending", "running", "completed", "failed"
	StartedAt     *time.Time             `json:"started_at,omitempty"`
	FinishedAt    *time.Time             `json:"finished_at,omitempty"`
	Found         int                    `json:"found"`
	FailedSources int                    `json:"failed_sources"`
	Candidates    int                    `json:"candidates"`
	Inserted      int                    `json:"inserted"`
	Outcomes      []entity.SourceOutcome `json:"outcomes"`
	Error         string                 `json:"error,omitempty"`
}

func NewRunResponse(run *entity.CrawlRun) RunResponse {
	resp := RunResponse{
		ID:            run.ID,
		Query:         run.Query,
		Location:      run.Location,
		Status:        string(run.Status),
		FinishedAt:    run.FinishedAt,
		Found:         run.Found(),
		FailedSources: run.FailedSources(),
		Candidates:    run.Candidates,
		Inserted:      run.Inserted,
		Outcomes:      run.Outcomes,
		Error:         run.Error,
	}
	if !run.StartedAt.IsZero() {
		startedAt := run.StartedAt
		resp.StartedAt = &startedAt
	}
	if resp.Outcomes == nil {
		resp.Outcomes = []entity.SourceOutcome{}
	}
	return resp
}

type ListingResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Company   *string   `json:"company"`
	Location  string    `json:"location"`
	URL       string    `json:"url"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

type ListingsResponse struct {
	Listings []ListingResponse `json:"listings"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

func NewListingsResponse(listings []entity.CanonicalListing, limit, offset int) ListingsResponse {
	resp := ListingsResponse{
		Listings: make([]ListingResponse, 0, len(listings)),
		Limit:    limit,
		Offset:   offset,
	}
	for _, l := range listings {
		resp.Listings = append(resp.Listings, ListingResponse{
			ID:        l.ID,
			Title:     l.Title,
			Company:   l.Company,
			Location:  l.Location,
			URL:       l.URL,
			Source:    string(l.Source),
			CreatedAt: l.CreatedAt,
		})
	}
	return resp
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
