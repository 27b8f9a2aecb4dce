package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/keyward/keyward/internal/audit"
	"github.com/keyward/keyward/internal/backend"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/guard"
	"github.com/keyward/keyward/internal/namespace"
	"github.com/keyward/keyward/internal/scanner"
	"github.com/keyward/keyward/internal/vault"
)

// openVault wires config, backend and audit log into a Vault. The
// returned closer flushes the audit database.
func openVault() (*vault.Vault, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	store, err := backend.Open(backend.Options{
		Backend:    cfg.Backend,
		Dir:        cfg.Dir,
		Passphrase: cfg.Passphrase,
	})
	if err != nil {
		return nil, nil, err
	}

	opts := []vault.Option{vault.WithService(cfg.Service)}
	closer := func() {}

	if cfg.Audit {
		log, err := audit.Open(auditPath(cfg))
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, vault.WithAudit(log))
		closer = func() { log.Close() }
	}

	return vault.New(store, opts...), closer, nil
}

func auditPath(cfg *config.Config) string {
	dir := cfg.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			dir = ".keyward"
		} else {
			dir = filepath.Join(home, ".keyward")
		}
	}
	os.MkdirAll(dir, 0o700)
	return filepath.Join(dir, "audit.db")
}

// newGate builds the intercept gate from configuration.
func newGate() (*guard.Gate, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	rules := make([]guard.ExceptionRule, len(cfg.Exceptions))
	for i, pattern := range cfg.Exceptions {
		rules[i] = guard.ExceptionRule{Pattern: pattern}
	}

	return guard.NewGate(
		guard.WithScanner(&scanner.Scanner{
			EntropyThreshold: cfg.Scan.EntropyThreshold,
			MinRunLength:     cfg.Scan.MinRunLength,
		}),
		guard.WithExceptions(rules),
		guard.WithMaxInputBytes(cfg.Scan.MaxInputBytes),
	), nil
}

// resolveScope turns the --global / --project flags into a scope for
// operations that need exactly one (set, rm, list). The scope is
// always explicit in the call, never inferred from ambient state.
func resolveScope() (namespace.Scope, error) {
	if globalScope || currentProject() == "" {
		return namespace.Global(), nil
	}
	return namespace.Project(currentProject())
}

// currentProject returns the project identifier supplied by the
// caller: the --project flag or KEYWARD_PROJECT.
func currentProject() string {
	if globalScope {
		return ""
	}
	if projectName != "" {
		return projectName
	}
	return os.Getenv("KEYWARD_PROJECT")
}

// promptSecret reads a value from the terminal with echo disabled.
func promptSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	value, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return value, nil
}
