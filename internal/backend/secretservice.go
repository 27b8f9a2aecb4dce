package backend

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/keyward/keyward/internal/namespace"
)

const secretToolBin = "secret-tool"

// secretServiceStore is the Linux native variant, driven through
// `secret-tool` (freedesktop Secret Service over D-Bus). Items carry
// service, scope and name attributes, so enumeration is an attribute
// search and never touches unrelated namespaces.
type secretServiceStore struct {
	run func(stdin []byte, args ...string) ([]byte, error)
}

func newSecretServiceStore() *secretServiceStore {
	return &secretServiceStore{run: runSecretTool}
}

func runSecretTool(stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.Command(secretToolBin, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return stdout.Bytes(), fmt.Errorf("run secret-tool: %w", ErrUnavailable)
		}
		return stdout.Bytes(), mapSecretToolError(args[0], stderr.String())
	}
	return stdout.Bytes(), nil
}

// mapSecretToolError translates a secret-tool failure onto the shared
// backend taxonomy. secret-tool exits 1 both for "not found" and for
// operational problems, so stderr decides; a bare failure means "no
// matching item" only for lookup and search.
func mapSecretToolError(op, stderr string) error {
	low := strings.ToLower(stderr)
	switch {
	case strings.Contains(low, "d-bus") || strings.Contains(low, "dbus") ||
		strings.Contains(low, "cannot autolaunch") ||
		strings.Contains(low, "no such interface") ||
		strings.Contains(low, "couldn't connect"):
		return fmt.Errorf("secret service daemon not reachable: %w", ErrUnavailable)
	case strings.Contains(low, "denied") || strings.Contains(low, "dismissed") ||
		strings.Contains(low, "locked"):
		return fmt.Errorf("secret service access denied: %w", ErrAccessDenied)
	case op == "lookup" || op == "search":
		return ErrNotFound
	default:
		return fmt.Errorf("secret-tool %s failed: %s: %w", op, strings.TrimSpace(stderr), ErrUnavailable)
	}
}

func (s *secretServiceStore) attrs(key namespace.Key) []string {
	return []string{
		"service", key.Service,
		"scope", key.Scope.String(),
		"name", key.Name,
	}
}

func (s *secretServiceStore) Store(key namespace.Key, value []byte) error {
	args := append([]string{
		"store",
		"--label", fmt.Sprintf("%s: %s", key.Service, key.Name),
	}, s.attrs(key)...)

	// secret-tool replaces an item with identical attributes, which
	// keeps store idempotent.
	if _, err := s.run(value, args...); err != nil {
		return fmt.Errorf("store %q: %w", key.Name, err)
	}
	return nil
}

func (s *secretServiceStore) Retrieve(key namespace.Key) ([]byte, error) {
	args := append([]string{"lookup"}, s.attrs(key)...)
	out, err := s.run(nil, args...)
	if err != nil {
		return nil, fmt.Errorf("retrieve %q: %w", key.Name, err)
	}
	return out, nil
}

func (s *secretServiceStore) Delete(key namespace.Key) error {
	// secret-tool clear exits 0 even when nothing matched; look the
	// item up first so deleting an absent key reports ErrNotFound.
	if _, err := s.Retrieve(key); err != nil {
		return err
	}

	args := append([]string{"clear"}, s.attrs(key)...)
	if _, err := s.run(nil, args...); err != nil {
		return fmt.Errorf("delete %q: %w", key.Name, err)
	}
	return nil
}

func (s *secretServiceStore) Enumerate(service string, scope namespace.Scope) ([]string, error) {
	out, err := s.run(nil,
		"search", "--all",
		"service", service,
		"scope", scope.String(),
	)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("enumerate: %w", err)
	}

	// search output contains one "attribute.name = <name>" line per item.
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if name, ok := strings.CutPrefix(line, "attribute.name = "); ok && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

var _ Store = (*secretServiceStore)(nil)
