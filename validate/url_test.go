package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestURL_Accepts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"https", "https://example.com/path?q=1", "https://example.com/path?q=1"},
		{"http", "http://example.com", "http://example.com/"},
		{"trimmed", "  https://example.com/a  ", "https://example.com/a"},
		{"host case", "https://Example.COM/A", "https://example.com/A"},
		{"no scheme", "example.com", "https://example.com/"},
		{"no scheme with path", "example.com/docs/intro", "https://example.com/docs/intro"},
		{"upper scheme", "HTTPS://example.com/", "https://example.com/"},
		{"no slashes", "http:example.com", "http://example.com/"},
		{"no slashes with query", "https:Example.com/a?q=1", "https://example.com/a?q=1"},
		{"single slash", "http:/example.com/docs", "http://example.com/docs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := URL(tt.in)
			if err != nil {
				t.Fatalf("URL(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("URL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestURL_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{"missing", "", ErrRequired},
		{"blank", "   ", ErrEmpty},
		{"file", "file:///etc/passwd", ErrFileScheme},
		{"javascript", "javascript:alert(1)", ErrJSScheme},
		{"javascript upper", "JavaScript:alert(1)", ErrJSScheme},
		{"data", "data:text/html,<b>x</b>", ErrDataScheme},
		{"no host", "http://", ErrInvalidFormat},
		{"spaces", "not a url", ErrInvalidFormat},
		{"unknown scheme separator", "://missing", ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := URL(tt.in)
			if err == nil {
				t.Fatalf("URL(%q) = %q, want error", tt.in, got)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("URL(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestURL_RejectsOtherSchemes(t *testing.T) {
	for _, in := range []string{"ftp://example.com/file", "mailto:someone@example.com", "ws://example.com/socket"} {
		_, err := URL(in)
		if err == nil {
			t.Errorf("URL(%q) should be rejected", in)
			continue
		}
		if !strings.Contains(err.Error(), "Invalid protocol") {
			t.Errorf("URL(%q) error = %q, want protocol error", in, err)
		}
	}
}

func TestURL_OnlyHTTPSchemesSurvive(t *testing.T) {
	inputs := []string{
		"example.org", "http://a.b", "https://a.b/c", "sub.example.org/x?y=z",
		"ftp://a.b", "gopher://a.b", "file://a", "data:,x", "javascript:void(0)",
	}
	for _, in := range inputs {
		got, err := URL(in)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(got, "http://") && !strings.HasPrefix(got, "https://") {
			t.Errorf("URL(%q) = %q, accepted a non-http URL", in, got)
		}
	}
}
