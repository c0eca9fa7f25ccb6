package pipeline

import (
	"unicode/utf8"

	"github.com/use-agent/sectionscope/models"
	"github.com/use-agent/sectionscope/scraper"
)

// MinSufficientText is the total section text, in characters, below which
// a static extraction is considered too thin.
const MinSufficientText = 200

// Outcome is what one retrieval path contributed to a result.
type Outcome struct {
	Meta     models.Meta
	Sections []models.Section
	Errors   []models.PhaseError
	// Markup is the document the sections were extracted from.
	Markup string
}

// Sufficient reports whether statically extracted sections are good enough
// to skip dynamic rendering. It requires at least one section, enough
// total text, and some main content: a hero or generic section, or any
// section carrying a heading.
func Sufficient(sections []models.Section) bool {
	if len(sections) == 0 {
		return false
	}
	totalText := 0
	hasMainContent := false
	for _, s := range sections {
		totalText += utf8.RuneCountInString(s.Content.Text)
		if s.Type == models.SectionHero || s.Type == models.SectionSection || len(s.Content.Headings) > 0 {
			hasMainContent = true
		}
	}
	return totalText >= MinSufficientText && hasMainContent
}

// Merge combines the static outcome with a dynamic render. Sections are
// replaced wholesale only when the render produced strictly more of them.
// Meta is replaced only when the static title is empty and the rendered
// one is not. Errors are concatenated, static first.
func Merge(static Outcome, dynamic *scraper.RenderResult) Outcome {
	merged := Outcome{
		Meta:     static.Meta,
		Sections: static.Sections,
		Errors:   append(append([]models.PhaseError{}, static.Errors...), dynamic.Errors...),
		Markup:   static.Markup,
	}
	if len(dynamic.Sections) > len(static.Sections) {
		merged.Sections = dynamic.Sections
		merged.Markup = dynamic.Markup
	}
	if dynamic.Meta.Title != "" && static.Meta.Title == "" {
		merged.Meta = dynamic.Meta
	}
	return merged
}
