// Package extractor turns page markup into classified, bounded sections
// and page metadata. It is shared by the static and rendered paths so both
// produce identical shapes.
package extractor

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/sectionscope/models"
)

// Options tunes a single extraction.
type Options struct {
	// Markdown attaches a Markdown rendering of each section.
	Markdown bool
	// Scope is a CSS selector restricting section discovery to matching
	// subtrees. Metadata is always read from the whole document.
	Scope string
	// BaseURL resolves relative links and images. Empty means the source
	// URL, which differs from the fetched document after a redirect.
	BaseURL string
}

// Extraction is the output of one pass over a document.
type Extraction struct {
	Meta     models.Meta
	Sections []models.Section
}

// Extractor is safe for concurrent use.
type Extractor struct {
	mdConverter *converter.Converter
}

// New returns an Extractor with a pre-configured Markdown converter.
func New() *Extractor {
	return &Extractor{mdConverter: newMarkdownConverter()}
}

// ValidateScope reports whether selector is a usable scope.
func ValidateScope(selector string) error {
	if strings.TrimSpace(selector) == "" {
		return nil
	}
	_, err := cascadia.Parse(selector)
	return err
}

// Extract parses markup and returns its metadata and sections. Semantic
// containers are tried first; heading groups are used only when no
// container qualifies. Malformed markup yields an empty Extraction.
func (e *Extractor) Extract(markup, sourceURL string, opts Options) Extraction {
	out := Extraction{Sections: []models.Section{}}
	if strings.TrimSpace(markup) == "" {
		return out
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		slog.Warn("extractor: parse failed", "url", sourceURL, "error", err)
		return out
	}

	baseURL := sourceURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	out.Meta = extractMeta(doc.Selection)
	enrichMeta(&out.Meta, markup, base)

	root := doc.Selection
	if scope := strings.TrimSpace(opts.Scope); scope != "" {
		scoped, err := applyScope(markup, scope)
		if err != nil {
			slog.Warn("extractor: scope ignored", "url", sourceURL, "scope", scope, "error", err)
		} else if scopedDoc, err := goquery.NewDocumentFromReader(strings.NewReader(scoped)); err == nil {
			root = scopedDoc.Selection
		}
	}

	var markdown func(*goquery.Selection) string
	if opts.Markdown {
		markdown = markdownFor(e.mdConverter, baseURL)
	}

	out.Sections = semanticSections(root, base, sourceURL, markdown)
	if len(out.Sections) == 0 {
		out.Sections = headingSections(root, sourceURL, markdown)
	}
	return out
}
