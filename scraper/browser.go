package scraper

import "context"

// Browser opens isolated browsing sessions. Implementations must not share
// cookies, storage or cache between sessions.
type Browser interface {
	NewSession(ctx context.Context, userAgent string) (Session, error)
}

// Session is one isolated page. It is used by a single goroutine and must
// be closed on every path.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// WaitQuiescent blocks until the page has finished loading and the
	// network is idle, or ctx expires.
	WaitQuiescent(ctx context.Context) error
	// ScrollViewport scrolls down by one viewport height.
	ScrollViewport(ctx context.Context) error
	// Find returns the elements matching loc in document order. A missing
	// element is not an error.
	Find(ctx context.Context, loc Locator) ([]Element, error)
	// Markup returns the serialized current DOM.
	Markup(ctx context.Context) (string, error)
	Close() error
}

// Element is a handle to a node inside a Session.
type Element interface {
	Visible(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
}

// Locator selects elements by CSS selector, optionally narrowed to those
// whose text contains Text (case-insensitive).
type Locator struct {
	CSS  string
	Text string
}
