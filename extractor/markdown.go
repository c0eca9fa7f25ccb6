package extractor

import (
	"log/slog"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
)

// newMarkdownConverter builds a goroutine-safe converter. The base plugin
// drops script, style and other non-content nodes; tables keep their
// structure with minimal cell padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// markdownFor returns a renderer converting every node of a selection to
// Markdown, with relative links resolved against domain.
func markdownFor(conv *converter.Converter, domain string) func(*goquery.Selection) string {
	return func(sel *goquery.Selection) string {
		var b strings.Builder
		sel.Each(func(_ int, s *goquery.Selection) {
			outer, err := goquery.OuterHtml(s)
			if err == nil {
				b.WriteString(outer)
			}
		})
		md, err := conv.ConvertString(b.String(), converter.WithDomain(domain))
		if err != nil {
			slog.Debug("markdown conversion failed", "error", err)
			return ""
		}
		return strings.TrimSpace(md)
	}
}
