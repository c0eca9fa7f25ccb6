package extractor

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Predicate is an element-matching capability. It satisfies
// goquery.Matcher, so catalogs can be evaluated with Selection.FindMatcher
// without committing to a query language.
type Predicate func(*html.Node) bool

// Match reports whether n is an element accepted by the predicate.
func (p Predicate) Match(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && p(n)
}

// MatchAll returns n and its descendants that match, in document order.
func (p Predicate) MatchAll(n *html.Node) []*html.Node {
	return p.matchAllInto(n, nil)
}

func (p Predicate) matchAllInto(n *html.Node, storage []*html.Node) []*html.Node {
	if p.Match(n) {
		storage = append(storage, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		storage = p.matchAllInto(c, storage)
	}
	return storage
}

// Filter returns the subset of nodes that match.
func (p Predicate) Filter(nodes []*html.Node) []*html.Node {
	var result []*html.Node
	for _, n := range nodes {
		if p.Match(n) {
			result = append(result, n)
		}
	}
	return result
}

// Tag matches elements whose tag name is one of names.
func Tag(names ...string) Predicate {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return func(n *html.Node) bool {
		_, ok := set[n.Data]
		return ok
	}
}

// AttrContains matches elements whose attribute key contains substr.
// The comparison is case-sensitive, like the CSS [attr*="v"] selector.
func AttrContains(key, substr string) Predicate {
	return func(n *html.Node) bool {
		v, ok := attr(n, key)
		return ok && strings.Contains(v, substr)
	}
}

// ClassContains matches elements whose class attribute contains substr.
func ClassContains(substr string) Predicate {
	return AttrContains("class", substr)
}

// Role matches elements with the given ARIA role.
func Role(role string) Predicate {
	return func(n *html.Node) bool {
		v, ok := attr(n, "role")
		return ok && v == role
	}
}

// Any matches elements accepted by at least one of ps.
func Any(ps ...Predicate) Predicate {
	return func(n *html.Node) bool {
		for _, p := range ps {
			if p(n) {
				return true
			}
		}
		return false
	}
}

// CSS compiles a selector with cascadia. It panics on an invalid selector
// and is meant for package-level catalogs.
func CSS(selector string) Predicate {
	return Predicate(cascadia.MustCompile(selector))
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
