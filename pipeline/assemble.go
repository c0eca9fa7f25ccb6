package pipeline

import (
	"time"

	"github.com/use-agent/sectionscope/models"
)

// Assemble builds the final record. Nil slices are normalized so the JSON
// form always carries arrays.
func Assemble(pageURL string, scrapedAt time.Time, out Outcome, interactions models.Interactions) *models.ScrapeResult {
	r := models.NewScrapeResult(pageURL, scrapedAt)
	r.Meta = out.Meta
	if out.Sections != nil {
		r.Sections = out.Sections
	}
	if out.Errors != nil {
		r.Errors = append(r.Errors, out.Errors...)
	}

	r.Interactions = interactions
	if r.Interactions.Clicks == nil {
		r.Interactions.Clicks = []models.Click{}
	}
	if len(r.Interactions.Pages) == 0 {
		r.Interactions.Pages = []string{pageURL}
	}
	return r
}

// Summarize reduces a result to the record handed to persistence. Full
// sections are never persisted, only their count.
func Summarize(r *models.ScrapeResult, domFingerprint string) models.Summary {
	errs := make([]models.PhaseError, len(r.Errors))
	copy(errs, r.Errors)
	return models.Summary{
		URL:            r.URL,
		ScrapedAt:      r.ScrapedAt,
		Meta:           r.Meta,
		SectionsCount:  len(r.Sections),
		Errors:         errs,
		DOMFingerprint: domFingerprint,
	}
}
