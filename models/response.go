package models

// ScrapeResponse is the response for POST /scrape.
//
// Result is nil only for validation failures and faults in the request
// layer that happen before any result could be built.
type ScrapeResponse struct {
	Result *ScrapeResult `json:"result"`
	Errors []PhaseError  `json:"errors,omitempty"`
}

// HistoryResponse is the response for GET /api/v1/scrapes.
type HistoryResponse struct {
	URL       string    `json:"url,omitempty"`
	Summaries []Summary `json:"summaries"`
}

// HealthResponse is the response for GET /healthz.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	BrowserStats BrowserStats `json:"browser_stats"`
	Store        string       `json:"store"`
	Version      string       `json:"version"`
}

// BrowserStats reports the state of the shared browser process.
type BrowserStats struct {
	Enabled        bool `json:"enabled"`
	MaxSessions    int  `json:"max_sessions"`
	ActiveSessions int  `json:"active_sessions"`
}
