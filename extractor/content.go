package extractor

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/sectionscope/models"
	"github.com/use-agent/sectionscope/simhash"
)

// Caps applied to every section. Lengths are counted in characters.
const (
	MaxHeadings      = 10
	MaxTextLength    = 2000
	MaxLinks         = 50
	MaxLinkText      = 100
	MaxImages        = 20
	MaxAltText       = 200
	MaxLists         = 10
	MaxListItem      = 200
	MaxTables        = 5
	MaxCellText      = 100
	MaxRawHTMLLength = 2000
	MaxLabelLength   = 100

	// TruncationMarker is appended to rawHtml when it was cut.
	TruncationMarker = "..."
)

// extractSection builds a Section from a matched element. index is the
// zero-based running section index shared across the whole catalog pass.
func extractSection(sel *goquery.Selection, base *url.URL, sourceURL string, index int, typ models.SectionType) models.Section {
	content := models.NewContent()

	sel.FindMatcher(anyHeading).Each(func(_ int, h *goquery.Selection) {
		if text := strings.TrimSpace(h.Text()); text != "" {
			content.Headings = append(content.Headings, text)
		}
	})

	content.Text = truncate(visibleText(sel), MaxTextLength)
	content.Links = extractLinks(sel, base)
	content.Images = extractImages(sel, base)
	content.Lists = extractLists(sel)
	content.Tables = extractTables(sel)

	rawHTML, _ := goquery.OuterHtml(sel)
	rawHTML, truncated := truncateRawHTML(rawHTML)

	label := sectionLabel(content.Headings, typ, index)
	if len(content.Headings) > MaxHeadings {
		content.Headings = content.Headings[:MaxHeadings]
	}

	return models.Section{
		ID:          sectionID(index),
		Type:        typ,
		Label:       truncate(label, MaxLabelLength),
		SourceURL:   sourceURL,
		Content:     content,
		RawHTML:     rawHTML,
		Truncated:   truncated,
		Fingerprint: simhash.Hex(simhash.Fingerprint(content.Text)),
	}
}

func sectionID(index int) string {
	return fmt.Sprintf("section-%d", index)
}

// sectionLabel picks the first heading, else a type-specific default.
func sectionLabel(headings []string, typ models.SectionType, index int) string {
	if len(headings) > 0 {
		return headings[0]
	}
	switch typ {
	case models.SectionNav:
		return "Navigation"
	case models.SectionFooter:
		return "Footer"
	case models.SectionHero:
		return "Hero Section"
	default:
		return fmt.Sprintf("Section %d", index+1)
	}
}

// visibleText returns the element text without script/style/noscript
// content, with whitespace runs collapsed to single spaces.
func visibleText(sel *goquery.Selection) string {
	clone := sel.Clone()
	clone.FindMatcher(nonText).Remove()
	return collapseWhitespace(clone.Text())
}

func extractLinks(sel *goquery.Selection, base *url.URL) []models.Link {
	links := []models.Link{}
	sel.FindMatcher(anchorHref).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		text := strings.TrimSpace(a.Text())
		if href == "" || text == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return true
		}
		links = append(links, models.Link{
			Text: truncate(text, MaxLinkText),
			Href: resolveURL(base, href),
		})
		return len(links) < MaxLinks
	})
	return links
}

func extractImages(sel *goquery.Selection, base *url.URL) []models.Image {
	images := []models.Image{}
	sel.FindMatcher(imageSrc).EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			return true
		}
		images = append(images, models.Image{
			Src: resolveURL(base, src),
			Alt: truncate(img.AttrOr("alt", ""), MaxAltText),
		})
		return len(images) < MaxImages
	})
	return images
}

// extractLists collects direct <li> children only; nested lists are
// reported as lists of their own.
func extractLists(sel *goquery.Selection) [][]string {
	lists := [][]string{}
	sel.FindMatcher(listElements).EachWithBreak(func(_ int, list *goquery.Selection) bool {
		var items []string
		list.ChildrenMatcher(listItem).Each(func(_ int, li *goquery.Selection) {
			if text := strings.TrimSpace(li.Text()); text != "" {
				items = append(items, truncate(text, MaxListItem))
			}
		})
		if len(items) > 0 {
			lists = append(lists, items)
		}
		return len(lists) < MaxLists
	})
	return lists
}

func extractTables(sel *goquery.Selection) [][][]string {
	tables := [][][]string{}
	sel.FindMatcher(tableElement).EachWithBreak(func(_ int, table *goquery.Selection) bool {
		var rows [][]string
		table.FindMatcher(tableRow).Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.FindMatcher(tableCell).Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, truncate(strings.TrimSpace(cell.Text()), MaxCellText))
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		if len(rows) > 0 {
			tables = append(tables, rows)
		}
		return len(tables) < MaxTables
	})
	return tables
}

// resolveURL makes ref absolute against base. Unparseable input is passed
// through unchanged.
func resolveURL(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// truncateRawHTML hard-cuts markup at MaxRawHTMLLength characters and
// appends the truncation marker.
func truncateRawHTML(markup string) (string, bool) {
	if utf8.RuneCountInString(markup) <= MaxRawHTMLLength {
		return markup, false
	}
	return truncate(markup, MaxRawHTMLLength) + TruncationMarker, true
}

// truncate returns at most n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
