package simhash

import (
	"strings"

	"golang.org/x/net/html"
)

// skippedTags never contribute to the structural fingerprint: their
// presence varies between a static fetch and a rendered page without the
// visible structure changing.
var skippedTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"link":     {},
	"meta":     {},
}

// FingerprintDOM computes a SimHash fingerprint of the DOM structure.
// Only tag names in document order are considered, as 3-tag shingles.
// Used to compare the statically fetched markup with the rendered one.
func FingerprintDOM(markup string) uint64 {
	tags := extractTags(markup)
	if len(tags) == 0 {
		return 0
	}

	shingles := makeShingles(tags, 3)
	if len(shingles) == 0 {
		return Fingerprint(strings.Join(tags, " "))
	}
	return Fingerprint(strings.Join(shingles, " "))
}

// extractTags walks markup with the tokenizer and collects open tag names.
func extractTags(markup string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))
	var tags []string

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			name := string(tn)
			if _, skip := skippedTags[name]; skip {
				continue
			}
			tags = append(tags, name)
		}
	}
}

// makeShingles creates n-gram shingles from a slice of tokens.
func makeShingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}

	shingles := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+n], "_"))
	}
	return shingles
}
