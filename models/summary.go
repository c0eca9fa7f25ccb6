package models

import "time"

// Summary is the reduced record handed to persistence. It never carries
// full sections.
type Summary struct {
	URL            string       `json:"url"`
	ScrapedAt      time.Time    `json:"scrapedAt"`
	Meta           Meta         `json:"meta"`
	SectionsCount  int          `json:"sectionsCount"`
	Errors         []PhaseError `json:"errors"`
	DOMFingerprint string       `json:"domFingerprint,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
