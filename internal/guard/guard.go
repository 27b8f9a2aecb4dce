// Package guard turns scanner findings into an Allow / Warn / Block
// verdict and exposes the intercept gate that action sources (shell
// execution, file writers, commit hooks) call before proceeding.
//
// A detected leak is not an error: it is a Verdict value the caller
// must honor. Returning blocking as data, not a thrown signal, means a
// careless caller cannot swallow a Block with a catch-all.
package guard

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/keyward/keyward/internal/scanner"
)

// ActionKind names the kind of action being gated.
type ActionKind string

// Known action kinds.
const (
	ActionCommand   ActionKind = "command"
	ActionFileWrite ActionKind = "file_write"
	ActionCommit    ActionKind = "commit"
)

// ActionContext describes where the candidate text is headed: the kind
// of action and, when applicable, the file path it targets.
type ActionContext struct {
	Kind ActionKind
	Path string
}

// ExceptionRule suppresses findings for matching contexts. Pattern is
// either a context tag (equal to an ActionKind) or a doublestar path
// glob such as "testdata/**" or "**/fixtures/**".
type ExceptionRule struct {
	Pattern string
}

// Matches reports whether the rule covers the given context.
func (r ExceptionRule) Matches(ctx ActionContext) bool {
	if r.Pattern == string(ctx.Kind) {
		return true
	}
	if ctx.Path == "" {
		return false
	}
	ok, err := doublestar.Match(r.Pattern, ctx.Path)
	if err != nil {
		return false // malformed glob never matches
	}
	return ok
}

// Decision is the severity of a verdict.
type Decision int

const (
	// Allow means no findings remain; the action may proceed.
	Allow Decision = iota

	// Warn means only heuristic (high-entropy) findings remain; the
	// action source should surface them but may proceed.
	Warn

	// Block means at least one high-confidence pattern match remains;
	// the action must not proceed without an explicit override.
	Block
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Warn:
		return "warn"
	case Block:
		return "block"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// MarshalText renders the decision name in JSON output.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Verdict is the outcome of one scan. Reasons holds the findings that
// drove a Warn or Block; it is empty for Allow. Verdicts are produced
// fresh per call and never persisted.
type Verdict struct {
	Decision Decision          `json:"decision"`
	Reasons  []scanner.Finding `json:"reasons,omitempty"`
}

// Explain renders a human-readable account of the verdict: rule kind
// and span only, never the matched text.
func (v Verdict) Explain() string {
	if v.Decision == Allow {
		return "allow: no secrets detected"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d finding(s)", v.Decision, len(v.Reasons))
	for _, f := range v.Reasons {
		kind := "high-entropy run"
		if f.Kind == scanner.KindPatternMatch {
			kind = "pattern match"
		}
		fmt.Fprintf(&b, "\n  - %s (rule %s) at bytes %d-%d", kind, f.RuleID, f.Start, f.End)
	}
	return b.String()
}

// Decide filters findings through the exception rules and maps what
// remains to a verdict. Severity is the maximum across findings, never
// an average: one pattern match blocks regardless of how many
// heuristic findings accompany it.
func Decide(findings []scanner.Finding, ctx ActionContext, exceptions []ExceptionRule) Verdict {
	for _, rule := range exceptions {
		if rule.Matches(ctx) {
			// The whole context is excepted (e.g. a test-fixtures
			// path); every finding inside it is suppressed.
			return Verdict{Decision: Allow}
		}
	}

	if len(findings) == 0 {
		return Verdict{Decision: Allow}
	}

	decision := Warn
	for _, f := range findings {
		if f.Kind == scanner.KindPatternMatch {
			decision = Block
			break
		}
	}
	return Verdict{Decision: decision, Reasons: findings}
}
