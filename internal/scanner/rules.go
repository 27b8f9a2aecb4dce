package scanner

import "regexp"

// patternRules is the fixed rule set for secrets with a known shape.
// Key names in the assignment rule match case-insensitively; the
// private-key header literal is matched case-sensitively.
var patternRules = []struct {
	id string
	re *regexp.Regexp
}{
	{
		// key=value assignments where the key names a secret and the
		// value is at least 8 characters.
		id: "assignment",
		re: regexp.MustCompile(`(?i)[\w.-]*(?:password|passwd|pwd|api[_-]?key|apikey|secret|token)[\w.-]*\s*[:=]\s*["']?[^\s"']{8,}`),
	},
	{
		id: "private-key",
		re: regexp.MustCompile(`-----BEGIN (?:[A-Z0-9]+ )*PRIVATE KEY(?: BLOCK)?-----`),
	},
	{
		// 40-character hex runs: SHA-1 shaped tokens, e.g. classic
		// GitHub PATs and many webhook secrets.
		id: "hex-40",
		re: regexp.MustCompile(`\b[0-9a-fA-F]{40}\b`),
	},
	{
		id: "aws-access-key",
		re: regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	},
	{
		id: "github-token",
		re: regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{20,}\b`),
	},
	{
		id: "openai-key",
		re: regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{20,}\b`),
	},
	{
		id: "google-api-key",
		re: regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{30,}`),
	},
	{
		id: "slack-token",
		re: regexp.MustCompile(`\bxox[abpsr]-[0-9A-Za-z-]{10,}`),
	},
}

func scanPatterns(text string) []Finding {
	var findings []Finding
	for _, rule := range patternRules {
		for _, loc := range rule.re.FindAllStringIndex(text, -1) {
			findings = append(findings, Finding{
				Kind:   KindPatternMatch,
				Start:  loc[0],
				End:    loc[1],
				RuleID: rule.id,
				Digest: digest(text[loc[0]:loc[1]]),
			})
		}
	}
	return findings
}
