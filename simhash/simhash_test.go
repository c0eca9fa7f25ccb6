package simhash

import (
	"testing"
)

func TestFingerprint_Deterministic(t *testing.T) {
	text := "pricing plans for small teams and enterprises"
	if Fingerprint(text) != Fingerprint(text) {
		t.Error("identical texts produced different fingerprints")
	}
}

func TestFingerprint_CaseInsensitive(t *testing.T) {
	a := Fingerprint("Frequently Asked Questions")
	b := Fingerprint("frequently asked questions")
	if a != b {
		t.Errorf("case should not change the fingerprint: %016x vs %016x", a, b)
	}
}

func TestFingerprint_SimilarAndDifferent(t *testing.T) {
	base := Fingerprint("the quick brown fox jumps over the lazy dog")
	near := Fingerprint("the quick brown fox leaps over the lazy dog")
	far := Fingerprint("completely unrelated content about quantum physics and mathematics")

	if d := Distance(base, near); d > 10 {
		t.Errorf("similar texts have too large distance: %d", d)
	}
	if d := Distance(base, far); d < 5 {
		t.Errorf("very different texts have too small distance: %d", d)
	}
}

func TestFingerprint_Empty(t *testing.T) {
	for _, in := range []string{"", "   \t\n  "} {
		if fp := Fingerprint(in); fp != 0 {
			t.Errorf("Fingerprint(%q) = %016x, want 0", in, fp)
		}
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		name string
		in   uint64
		want string
	}{
		{"zero", 0, ""},
		{"padded", 0xab, "00000000000000ab"},
		{"full", ^uint64(0), "ffffffffffffffff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Hex(tt.in); got != tt.want {
				t.Errorf("Hex(%x) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0xFF, 0xFF, 0},
		{"all different", 0, ^uint64(0), 64},
		{"one bit", 0, 1, 1},
		{"two bits", 0, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilar_ThresholdBoundary(t *testing.T) {
	a := Fingerprint("the quick brown fox")
	b := Fingerprint("a completely different text about nothing related")
	dist := Distance(a, b)

	if Similar(a, b, dist-1) {
		t.Errorf("should not be similar below the distance (%d)", dist)
	}
	if !Similar(a, b, dist) {
		t.Errorf("should be similar at threshold equal to distance (%d)", dist)
	}
}

func TestFingerprintDOM_IgnoresTextAndScripts(t *testing.T) {
	static := `<html><head><title>A</title></head><body><main><h1>Hello</h1><p>World</p></main></body></html>`
	rendered := `<html><head><title>B</title><script>x()</script><meta charset="utf-8"></head><body><main><h1>Hi</h1><p>Earth</p></main><script src="app.js"></script></body></html>`

	if FingerprintDOM(static) != FingerprintDOM(rendered) {
		t.Errorf("same visible structure should fingerprint identically, distance %d",
			Distance(FingerprintDOM(static), FingerprintDOM(rendered)))
	}
}

func TestFingerprintDOM_DifferentStructures(t *testing.T) {
	a := FingerprintDOM(`<html><body><div><h1>Title</h1><p>Text</p><p>More text</p></div></body></html>`)
	b := FingerprintDOM(`<html><body><table><tr><td>A</td><td>B</td></tr><tr><td>C</td><td>D</td></tr></table></body></html>`)

	if d := Distance(a, b); d < 3 {
		t.Errorf("different DOM structures should have larger distance, got: %d", d)
	}
}

func TestFingerprintDOM_NoTags(t *testing.T) {
	for _, in := range []string{"", "just some plain text with no tags"} {
		if fp := FingerprintDOM(in); fp != 0 {
			t.Errorf("FingerprintDOM(%q) = %016x, want 0", in, fp)
		}
	}
}

func TestExtractTags(t *testing.T) {
	tags := extractTags(`<html><head><title>Test</title><style>p{}</style></head><body><div><p>Hello</p></div></body></html>`)

	expected := []string{"html", "head", "title", "body", "div", "p"}
	if len(tags) != len(expected) {
		t.Fatalf("expected %d tags, got %d: %v", len(expected), len(tags), tags)
	}
	for i, tag := range tags {
		if tag != expected[i] {
			t.Errorf("tag[%d] = %q, want %q", i, tag, expected[i])
		}
	}
}

func TestMakeShingles(t *testing.T) {
	shingles := makeShingles([]string{"a", "b", "c", "d"}, 3)
	expected := []string{"a_b_c", "b_c_d"}

	if len(shingles) != len(expected) {
		t.Fatalf("expected %d shingles, got %d: %v", len(expected), len(shingles), shingles)
	}
	for i, s := range shingles {
		if s != expected[i] {
			t.Errorf("shingle[%d] = %q, want %q", i, s, expected[i])
		}
	}

	if got := makeShingles([]string{"a", "b"}, 3); got != nil {
		t.Errorf("expected nil for fewer tokens than n, got: %v", got)
	}
}
