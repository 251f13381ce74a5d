// Package challenge detects soft-block pages returned in place of real content.
package challenge

import (
	"strings"
)

// Type represents the kind of block detected on a page.
type Type string

const (
	// TypeNone indicates no block was detected.
	TypeNone Type = "none"
	// TypeSoftBlock indicates the page rendered but carries a known block phrase.
	TypeSoftBlock Type = "soft_block"
)

// DefaultPhrases are used when no block phrase list is configured.
var DefaultPhrases = []string{
	"request rejected",
	"just a moment...",
	"access denied",
	"et øjeblik",
}

// Detection contains information about a detected block.
type Detection struct {
	Type Type `json:"type"`
	// Phrase is the signature that matched, empty when Type is TypeNone.
	Phrase string `json:"phrase,omitempty"`
	Title  string `json:"title"`
}

// Blocked reports whether the page was recognised as a block page.
func (d Detection) Blocked() bool {
	return d.Type != TypeNone
}

// Detector matches rendered page content against soft-block signatures.
type Detector struct {
	phrases []string
}

// NewDetector creates a detector for the given phrases. Matching is case-insensitive.
// An empty list falls back to DefaultPhrases.
func NewDetector(phrases []string) *Detector {
	if len(phrases) == 0 {
		phrases = DefaultPhrases
	}
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			lowered = append(lowered, p)
		}
	}
	return &Detector{phrases: lowered}
}

// Phrases returns the configured signatures in lower case.
func (d *Detector) Phrases() []string {
	out := make([]string, len(d.phrases))
	copy(out, d.phrases)
	return out
}

// Detect checks the page title and extracted text for a block signature.
func (d *Detector) Detect(title, text string) Detection {
	detection := Detection{Type: TypeNone, Title: title}

	haystack := strings.ToLower(title + " " + text)
	for _, phrase := range d.phrases {
		if strings.Contains(haystack, phrase) {
			detection.Type = TypeSoftBlock
			detection.Phrase = phrase
			return detection
		}
	}

	return detection
}
