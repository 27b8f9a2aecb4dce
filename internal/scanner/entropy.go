package scanner

import (
	"math"
	"regexp"
)

// alnumRun matches maximal alphanumeric runs. Length filtering happens
// afterwards so the threshold stays tunable without recompiling.
var alnumRun = regexp.MustCompile(`[A-Za-z0-9]+`)

// scanEntropy flags maximal alphanumeric runs of at least MinRunLength
// whose Shannon entropy meets the threshold, skipping runs already
// covered by a pattern match. Entropy is computed over the exact run,
// so one random token cannot contaminate its low-risk surroundings.
func (s *Scanner) scanEntropy(text string, covered []Finding) []Finding {
	minLen := s.MinRunLength
	if minLen <= 0 {
		minLen = DefaultMinRunLength
	}
	threshold := s.EntropyThreshold
	if threshold <= 0 {
		threshold = DefaultEntropyThreshold
	}

	var findings []Finding
	for _, loc := range alnumRun.FindAllStringIndex(text, -1) {
		if loc[1]-loc[0] < minLen {
			continue
		}
		if overlaps(loc[0], loc[1], covered) {
			continue
		}
		run := text[loc[0]:loc[1]]
		if shannonEntropy(run) < threshold {
			continue
		}
		findings = append(findings, Finding{
			Kind:   KindHighEntropyRun,
			Start:  loc[0],
			End:    loc[1],
			RuleID: "entropy",
			Digest: digest(run),
		})
	}
	return findings
}

// shannonEntropy returns the Shannon entropy of s in bits per character.
func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}

	var freq [256]int
	for i := 0; i < len(s); i++ {
		freq[s[i]]++
	}

	total := float64(len(s))
	var entropy float64
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}
