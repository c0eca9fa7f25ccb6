// Package validate normalises and checks user-supplied URLs before they
// reach the scraping pipeline.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrRequired      = errors.New("URL is required")
	ErrEmpty         = errors.New("URL cannot be empty")
	ErrFileScheme    = errors.New("file:// URLs are not allowed")
	ErrJSScheme      = errors.New("javascript: URLs are not allowed")
	ErrDataScheme    = errors.New("data: URLs are not allowed")
	ErrInvalidFormat = errors.New("Invalid URL format")
)

// blockedPrefixes are rejected before any parsing happens.
var blockedPrefixes = []struct {
	prefix string
	err    error
}{
	{"file://", ErrFileScheme},
	{"javascript:", ErrJSScheme},
	{"data:", ErrDataScheme},
}

// URL returns the normalised absolute form of raw, or an error whose
// message is suitable for the caller.
//
// Only http and https are accepted. Input without "://" is retried with an
// "https://" prefix.
func URL(raw string) (string, error) {
	if raw == "" {
		return "", ErrRequired
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmpty
	}

	lower := strings.ToLower(s)
	for _, b := range blockedPrefixes {
		if strings.HasPrefix(lower, b.prefix) {
			return "", b.err
		}
	}

	u, err := url.Parse(s)
	if err == nil && u.Scheme != "" {
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", fmt.Errorf("Invalid protocol: %s:. Only http:// and https:// are allowed", u.Scheme)
		}
		if u.Host == "" {
			// "http:example.com" and "http:/example.com" name a host too.
			rest := strings.TrimLeft(s[len(u.Scheme)+1:], `/\`)
			if rest == "" {
				return "", ErrInvalidFormat
			}
			if u, err = url.Parse(u.Scheme + "://" + rest); err != nil {
				return "", ErrInvalidFormat
			}
		}
		if u.Hostname() == "" {
			return "", ErrInvalidFormat
		}
		return normalize(u), nil
	}

	if strings.Contains(s, "://") {
		return "", ErrInvalidFormat
	}
	u, err = url.Parse("https://" + s)
	if err != nil || u.Hostname() == "" {
		return "", ErrInvalidFormat
	}
	return normalize(u), nil
}

// normalize lower-cases the host and gives an empty path the root "/".
func normalize(u *url.URL) string {
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u.String()
}
