// Package scanner inspects text for secret material. It is pure: no
// disk, no network, no state between calls. Two strategies run
// independently and their findings are unioned: a fixed pattern rule
// set for secrets with a known shape, and Shannon-entropy analysis for
// opaque ones.
//
// Findings never carry the matched text, only its span, the rule id
// and a digest; the scanner must not itself become a leak vector.
package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Kind distinguishes the two detection strategies.
type Kind string

const (
	// KindPatternMatch is a high-confidence match of a known secret shape.
	KindPatternMatch Kind = "pattern_match"

	// KindHighEntropyRun is a heuristic match: a long alphanumeric run
	// whose entropy suggests random key material.
	KindHighEntropyRun Kind = "high_entropy_run"
)

// Finding is one suspicious span. Start and End are byte offsets into
// the scanned text (half-open). Digest is the SHA-256 of the matched
// bytes, kept for correlation instead of the literal text.
type Finding struct {
	Kind   Kind   `json:"kind"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	RuleID string `json:"rule_id"`
	Digest string `json:"digest"`
}

// Tuning defaults.
const (
	// DefaultEntropyThreshold is the bits-per-character boundary above
	// which an alphanumeric run is flagged.
	DefaultEntropyThreshold = 4.0

	// DefaultMinRunLength is the shortest alphanumeric run considered
	// for entropy analysis.
	DefaultMinRunLength = 20
)

// Scanner holds the tunable thresholds. The zero value is not usable;
// construct with New.
type Scanner struct {
	// EntropyThreshold is the bits/char boundary for high-entropy runs.
	EntropyThreshold float64

	// MinRunLength is the minimum alphanumeric run length analyzed.
	MinRunLength int
}

// New returns a Scanner with the default thresholds.
func New() *Scanner {
	return &Scanner{
		EntropyThreshold: DefaultEntropyThreshold,
		MinRunLength:     DefaultMinRunLength,
	}
}

// Scan returns all findings in text, pattern matches first by
// position, then entropy runs not already covered by a pattern match.
func (s *Scanner) Scan(text string) []Finding {
	findings := scanPatterns(text)
	findings = append(findings, s.scanEntropy(text, findings)...)

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Start != findings[j].Start {
			return findings[i].Start < findings[j].Start
		}
		return findings[i].End < findings[j].End
	})
	return findings
}

// digest hashes matched text so findings can be correlated without
// retaining the secret.
func digest(matched string) string {
	sum := sha256.Sum256([]byte(matched))
	return hex.EncodeToString(sum[:])
}

func overlaps(start, end int, findings []Finding) bool {
	for _, f := range findings {
		if start < f.End && f.Start < end {
			return true
		}
	}
	return false
}
