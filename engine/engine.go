// Package engine retrieves raw page markup with a single HTTP GET.
package engine

import "context"

// Engine is the static retrieval capability used by the pipeline.
type Engine interface {
	// Name returns the engine identifier (e.g. "http").
	Name() string

	// Fetch retrieves the page markup for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL string
}

// FetchResult is the output of a successful fetch. FinalURL is the
// document's address after redirects.
type FetchResult struct {
	HTML       string
	StatusCode int
	FinalURL   string
	EngineName string
}
