package request

// SubmitRunRequest asks for one crawl of every configured source.
type SubmitRunRequest struct {
	Query    string `json:"query"`
	Location string `json:"location"`
	Force    bool   `json:"force"` // skip the recent-run check
}
