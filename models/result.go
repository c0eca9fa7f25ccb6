package models

import "time"

// SectionType classifies an extracted section.
type SectionType string

const (
	SectionHero    SectionType = "hero"
	SectionNav     SectionType = "nav"
	SectionPricing SectionType = "pricing"
	SectionFAQ     SectionType = "faq"
	SectionList    SectionType = "list"
	SectionGrid    SectionType = "grid"
	SectionFooter  SectionType = "footer"
	SectionSection SectionType = "section"
)

// ScrapeResult is the record produced for every request. It is always
// constructed, even when every phase failed.
type ScrapeResult struct {
	URL          string       `json:"url"`
	ScrapedAt    time.Time    `json:"scrapedAt"`
	Meta         Meta         `json:"meta"`
	Sections     []Section    `json:"sections"`
	Interactions Interactions `json:"interactions"`
	Errors       []PhaseError `json:"errors"`
}

// NewScrapeResult returns an empty result with default interactions
// (no scrolls, no clicks, pages seeded with the origin URL).
func NewScrapeResult(url string, scrapedAt time.Time) *ScrapeResult {
	return &ScrapeResult{
		URL:          url,
		ScrapedAt:    scrapedAt,
		Sections:     []Section{},
		Interactions: NewInteractions(url),
		Errors:       []PhaseError{},
	}
}

// AddError appends a phase-tagged error.
func (r *ScrapeResult) AddError(phase Phase, err error) {
	r.Errors = append(r.Errors, NewPhaseError(phase, err))
}

// Meta holds page-level information extracted from the document head.
type Meta struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Language    string  `json:"language"`
	Canonical   *string `json:"canonical"`
	SiteName    string  `json:"siteName,omitempty"`
	Author      string  `json:"author,omitempty"`
}

// Section is a classified, bounded excerpt of page structure.
type Section struct {
	ID          string      `json:"id"`
	Type        SectionType `json:"type"`
	Label       string      `json:"label"`
	SourceURL   string      `json:"sourceUrl"`
	Content     Content     `json:"content"`
	RawHTML     string      `json:"rawHtml"`
	Truncated   bool        `json:"truncated"`
	Fingerprint string      `json:"fingerprint,omitempty"`
	Markdown    string      `json:"markdown,omitempty"`
}

// Content is the capped substructure of a section.
type Content struct {
	Headings []string     `json:"headings"`
	Text     string       `json:"text"`
	Links    []Link       `json:"links"`
	Images   []Image      `json:"images"`
	Lists    [][]string   `json:"lists"`
	Tables   [][][]string `json:"tables"`
}

// NewContent returns a Content with non-nil slices so JSON emits [] not null.
func NewContent() Content {
	return Content{
		Headings: []string{},
		Links:    []Link{},
		Images:   []Image{},
		Lists:    [][]string{},
		Tables:   [][][]string{},
	}
}

// Link represents a hyperlink extracted from a section.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Image represents an image element extracted from a section.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Interactions is the log of simulated actions taken while rendering.
type Interactions struct {
	Clicks  []Click  `json:"clicks"`
	Scrolls int      `json:"scrolls"`
	Pages   []string `json:"pages"`
}

// NewInteractions returns the interaction log for a run that has not
// touched the page yet.
func NewInteractions(origin string) Interactions {
	return Interactions{
		Clicks: []Click{},
		Pages:  []string{origin},
	}
}

// Click records one probe that fired during the interaction script.
type Click struct {
	Selector string `json:"selector"`
	Success  bool   `json:"success"`
}
