package extractor

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/use-agent/sectionscope/models"
)

var (
	titleElement    = Tag("title")
	htmlElement     = Tag("html")
	ogTitle         = CSS(`meta[property="og:title"]`)
	metaDescription = CSS(`meta[name="description"]`)
	ogDescription   = CSS(`meta[property="og:description"]`)
	canonicalLink   = CSS(`link[rel="canonical"]`)
)

// extractMeta reads page-level metadata. Missing values are empty strings;
// canonical stays nil when the page declares none.
func extractMeta(doc *goquery.Selection) models.Meta {
	meta := models.Meta{
		Title:       strings.TrimSpace(doc.FindMatcher(titleElement).Text()),
		Description: firstAttr(doc, metaDescription, "content"),
		Language:    firstAttr(doc, htmlElement, "lang"),
	}
	if meta.Title == "" {
		meta.Title = firstAttr(doc, ogTitle, "content")
	}
	if meta.Description == "" {
		meta.Description = firstAttr(doc, ogDescription, "content")
	}
	if href := firstAttr(doc, canonicalLink, "href"); href != "" {
		meta.Canonical = &href
	}
	return meta
}

// firstAttr returns the attribute of the first element matched by m.
func firstAttr(doc *goquery.Selection, m Predicate, name string) string {
	return doc.FindMatcher(m).First().AttrOr(name, "")
}

// enrichMeta fills the site name and author from readability. Readability
// failures leave meta untouched.
func enrichMeta(meta *models.Meta, markup string, base *url.URL) {
	if base == nil {
		return
	}
	article, err := readability.FromReader(strings.NewReader(markup), base)
	if err != nil {
		slog.Debug("readability: metadata unavailable", "url", base.String(), "error", err)
		return
	}
	meta.SiteName = strings.TrimSpace(article.SiteName)
	meta.Author = strings.TrimSpace(article.Byline)
}
