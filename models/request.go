package models

// ScrapeRequest is the payload for POST /scrape.
type ScrapeRequest struct {
	// URL is the target page. Validation and normalisation happen in the
	// handler, not through gin binding, so the 400 body keeps its shape.
	URL string `json:"url"`

	// IncludeMarkdown adds a Markdown rendering of every section.
	IncludeMarkdown bool `json:"includeMarkdown,omitempty"`

	// Scope is an optional CSS selector. When set, only the matched
	// elements are passed to the extraction engine.
	Scope string `json:"scope,omitempty"`

	// ForceRender skips the sufficiency check and always escalates to
	// the dynamic renderer.
	ForceRender bool `json:"forceRender,omitempty"`

	// MaxAge, in milliseconds, allows serving a cached result that is
	// younger than this. Zero disables the cache.
	MaxAge int `json:"maxAge,omitempty"`
}
