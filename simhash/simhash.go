// Package simhash computes 64-bit SimHash fingerprints of section text and
// of document structure, so callers can tell near-duplicate content apart
// from genuinely changed content when diffing results over time.
package simhash

import (
	"fmt"
	"hash/fnv"
	"math/bits"
	"strings"
)

// Fingerprint computes a 64-bit SimHash of the given text.
// Tokens are whitespace-separated words folded to lower case, hashed with
// FNV-64a and accumulated into a signed bit vector.
func Fingerprint(text string) uint64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	var vector [64]int
	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(strings.ToLower(word)))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// Hex renders a fingerprint as 16 lower-case hex digits, or "" for zero
// (the fingerprint of empty input).
func Hex(fp uint64) string {
	if fp == 0 {
		return ""
	}
	return fmt.Sprintf("%016x", fp)
}

// Distance returns the Hamming distance between two SimHash fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether the Hamming distance between two fingerprints
// is at most threshold.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}
