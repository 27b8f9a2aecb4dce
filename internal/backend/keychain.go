package backend

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/keyward/keyward/internal/namespace"
)

const securityBin = "security"

// Keychain item layout: the service attribute is the service tag, the
// account attribute is "scope:name". Values are stored base64-encoded
// because `security -w` is not binary-safe.
//
// The Keychain has no way to list one service's items without dumping
// the whole keychain, so Enumerate reads a names index kept as one
// extra item per (service, scope) under a reserved account prefix.

// security exit codes (SecBase.h).
const (
	secItemNotFound = 44
	secAuthFailed   = 51
	secInteraction  = 36
)

// keychainStore is the macOS native variant, driven through the
// `security` command-line tool. The first access from a new process may
// block on the OS consent prompt; that is surfaced as ordinary latency,
// and a declined prompt as ErrAccessDenied.
type keychainStore struct {
	run func(stdin []byte, args ...string) ([]byte, error)
}

func newKeychainStore() *keychainStore {
	return &keychainStore{run: runSecurity}
}

func runSecurity(stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.Command(securityBin, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), mapSecurityError(err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// mapSecurityError translates `security` failures onto the shared
// backend taxonomy.
func mapSecurityError(err error, stderr string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case secItemNotFound:
			return ErrNotFound
		case secAuthFailed, secInteraction:
			return fmt.Errorf("keychain prompt declined or unavailable: %w", ErrAccessDenied)
		}
		low := strings.ToLower(stderr)
		if strings.Contains(low, "denied") || strings.Contains(low, "not allowed") {
			return fmt.Errorf("keychain access denied: %w", ErrAccessDenied)
		}
		if strings.Contains(low, "could not be found") {
			return ErrNotFound
		}
		return fmt.Errorf("security: %s: %w", strings.TrimSpace(stderr), ErrUnavailable)
	}
	return fmt.Errorf("run security: %w", ErrUnavailable)
}

func keychainAccount(key namespace.Key) string {
	return key.Scope.String() + namespace.Separator + key.Name
}

func (s *keychainStore) Store(key namespace.Key, value []byte) error {
	encoded := base64.StdEncoding.EncodeToString(value)
	// -U updates an existing item in place, which keeps store idempotent.
	_, err := s.run(nil,
		"add-generic-password",
		"-U",
		"-s", key.Service,
		"-a", keychainAccount(key),
		"-l", fmt.Sprintf("%s: %s", key.Service, key.Name),
		"-w", encoded,
	)
	if err != nil {
		return fmt.Errorf("store %q: %w", key.Name, err)
	}
	return s.indexAdd(key.Service, key.Scope, key.Name)
}

func (s *keychainStore) Retrieve(key namespace.Key) ([]byte, error) {
	out, err := s.run(nil,
		"find-generic-password",
		"-s", key.Service,
		"-a", keychainAccount(key),
		"-w",
	)
	if err != nil {
		return nil, fmt.Errorf("retrieve %q: %w", key.Name, err)
	}
	value, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(out)))
	if err != nil {
		return nil, fmt.Errorf("keychain item %q is not a keyward value: %w", key.Name, ErrCorrupted)
	}
	return value, nil
}

func (s *keychainStore) Delete(key namespace.Key) error {
	_, err := s.run(nil,
		"delete-generic-password",
		"-s", key.Service,
		"-a", keychainAccount(key),
	)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key.Name, err)
	}
	return s.indexRemove(key.Service, key.Scope, key.Name)
}

func (s *keychainStore) Enumerate(service string, scope namespace.Scope) ([]string, error) {
	names, err := s.indexRead(service, scope)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil // no credentials stored yet
		}
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// The names index is itself a keychain item; it holds names only,
// never values.

// indexAccount names the per-(service, scope) index item. Credential
// accounts render as "scope:name" and scope strings begin with
// "global" or "project", so an account under the "index/" prefix can
// never equal a credential's account, whatever the credential is named.
func indexAccount(scope namespace.Scope) string {
	return "index/" + scope.String()
}

func (s *keychainStore) indexRead(service string, scope namespace.Scope) ([]string, error) {
	out, err := s.run(nil,
		"find-generic-password",
		"-s", service,
		"-a", indexAccount(scope),
		"-w",
	)
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(out)))
	if err != nil {
		return nil, fmt.Errorf("names index unreadable: %w", ErrCorrupted)
	}
	var names []string
	for _, n := range strings.Split(string(decoded), "\n") {
		if n != "" {
			names = append(names, n)
		}
	}
	return names, nil
}

func (s *keychainStore) indexWrite(service string, scope namespace.Scope, names []string) error {
	sort.Strings(names)
	encoded := base64.StdEncoding.EncodeToString([]byte(strings.Join(names, "\n")))
	_, err := s.run(nil,
		"add-generic-password",
		"-U",
		"-s", service,
		"-a", indexAccount(scope),
		"-l", fmt.Sprintf("%s: names index (%s)", service, scope),
		"-w", encoded,
	)
	return err
}

func (s *keychainStore) indexAdd(service string, scope namespace.Scope, name string) error {
	names, err := s.indexRead(service, scope)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("update names index: %w", err)
	}
	for _, n := range names {
		if n == name {
			return nil
		}
	}
	return s.indexWrite(service, scope, append(names, name))
}

func (s *keychainStore) indexRemove(service string, scope namespace.Scope, name string) error {
	names, err := s.indexRead(service, scope)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("update names index: %w", err)
	}
	kept := names[:0]
	for _, n := range names {
		if n != name {
			kept = append(kept, n)
		}
	}
	return s.indexWrite(service, scope, kept)
}

var _ Store = (*keychainStore)(nil)
