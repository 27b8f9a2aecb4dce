package guard

import (
	"errors"
	"fmt"

	"github.com/keyward/keyward/internal/scanner"
)

// DefaultMaxInputBytes bounds how much text one Check call will scan.
const DefaultMaxInputBytes = 1 << 20 // 1 MiB

// ErrInputTooLarge is returned when candidate text exceeds the gate's
// scan limit. This is an operational failure of the scanner, reported
// distinctly from any security verdict.
var ErrInputTooLarge = errors.New("input too large to scan")

// Gate is the synchronous façade action sources call before executing
// a command, writing a file, or committing. It composes the scanner
// and the decision engine and has no side effects: the scanned text is
// never stored, modified, or forwarded. Retries belong to the caller.
type Gate struct {
	scanner    *scanner.Scanner
	exceptions []ExceptionRule
	maxInput   int
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithScanner replaces the default scanner (e.g. tuned thresholds).
func WithScanner(s *scanner.Scanner) GateOption {
	return func(g *Gate) { g.scanner = s }
}

// WithExceptions sets the caller-configured exception rules.
func WithExceptions(rules []ExceptionRule) GateOption {
	return func(g *Gate) { g.exceptions = rules }
}

// WithMaxInputBytes overrides the scan size limit.
func WithMaxInputBytes(n int) GateOption {
	return func(g *Gate) { g.maxInput = n }
}

// NewGate builds a gate with default scanner and limits.
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{
		scanner:  scanner.New(),
		maxInput: DefaultMaxInputBytes,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check scans candidate text and returns the verdict. The error path
// is reserved for the scanner being unable to run at all; findings are
// never errors.
func (g *Gate) Check(text string, ctx ActionContext) (Verdict, error) {
	if len(text) > g.maxInput {
		return Verdict{}, fmt.Errorf("%d bytes exceeds the %d byte scan limit: %w",
			len(text), g.maxInput, ErrInputTooLarge)
	}

	findings := g.scanner.Scan(text)
	return Decide(findings, ctx, g.exceptions), nil
}
