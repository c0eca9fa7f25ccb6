package extractor

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/sectionscope/models"
	"github.com/use-agent/sectionscope/simhash"
)

const (
	// dedupPrefixLength is how much of an element's outer HTML identifies
	// it for duplicate suppression.
	dedupPrefixLength = 100
	minSectionText    = 10

	headingGroupTextLength  = 1000
	headingGroupLabelLength = 50
)

// semanticSections walks the catalog in order and emits one section per
// matching element that is neither a duplicate nor too small. When
// markdown is non-nil it renders the full element for each kept section.
func semanticSections(doc *goquery.Selection, base *url.URL, sourceURL string, markdown func(*goquery.Selection) string) []models.Section {
	sections := []models.Section{}
	seen := make(map[string]struct{})

	for _, r := range sectionCatalog {
		doc.FindMatcher(r.match).Each(func(_ int, el *goquery.Selection) {
			outer, err := goquery.OuterHtml(el)
			if err != nil {
				return
			}
			key := truncate(outer, dedupPrefixLength)
			if _, dup := seen[key]; dup {
				return
			}
			if utf8.RuneCountInString(strings.TrimSpace(el.Text())) < minSectionText {
				return
			}
			seen[key] = struct{}{}

			section := extractSection(el, base, sourceURL, len(sections), r.typ)
			if section.Content.Text == "" && len(section.Content.Headings) == 0 {
				return
			}
			if markdown != nil {
				section.Markdown = markdown(el)
			}
			sections = append(sections, section)
		})
	}
	return sections
}

// headingSections groups each h1-h3 with the element siblings that follow
// it up to the next h1-h3. It is the fallback for pages without semantic
// containers.
func headingSections(doc *goquery.Selection, sourceURL string, markdown func(*goquery.Selection) string) []models.Section {
	sections := []models.Section{}

	doc.FindMatcher(headingTier).Each(func(_ int, heading *goquery.Selection) {
		title := strings.TrimSpace(heading.Text())
		if title == "" {
			return
		}

		var b strings.Builder
		group := heading
		for next := heading.Next(); next.Length() > 0 && !next.IsMatcher(headingTier); next = next.Next() {
			b.WriteString(strings.TrimSpace(next.Text()))
			b.WriteByte(' ')
			group = group.AddSelection(next)
		}

		content := models.NewContent()
		content.Headings = []string{title}
		content.Text = truncate(strings.TrimSpace(b.String()), headingGroupTextLength)

		section := models.Section{
			ID:          sectionID(len(sections)),
			Type:        models.SectionSection,
			Label:       truncate(title, headingGroupLabelLength),
			SourceURL:   sourceURL,
			Content:     content,
			Fingerprint: simhash.Hex(simhash.Fingerprint(content.Text)),
		}
		if markdown != nil {
			section.Markdown = markdown(group)
		}
		sections = append(sections, section)
	})
	return sections
}
