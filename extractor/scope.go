package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// applyScope narrows markup to the outer HTML of every element matching
// selector. When nothing matches the markup is returned unchanged so that
// extraction still has the whole page to work with.
func applyScope(markup, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", fmt.Errorf("invalid scope selector %q: %w", selector, err)
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	matches := cascadia.QueryAll(doc, sel)
	if len(matches) == 0 {
		return markup, nil
	}

	var buf bytes.Buffer
	for _, node := range matches {
		if err := html.Render(&buf, node); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
