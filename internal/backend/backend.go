// Package backend abstracts the platform secret store behind a uniform
// store/retrieve/delete/enumerate contract. One variant exists per
// backend: the macOS Keychain, the freedesktop Secret Service, and an
// encrypted-file fallback for hosts with no native facility. The
// variant is chosen once at startup; business logic never branches on
// the platform.
package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"time"

	"github.com/keyward/keyward/internal/namespace"
)

// Sentinel errors shared by all backend variants. Every variant maps
// its platform-specific failures onto exactly one of these.
var (
	// ErrNotFound is returned when no credential exists for a key.
	ErrNotFound = errors.New("credential not found")

	// ErrAccessDenied is returned when the user or OS declined access
	// to the secret store (e.g. a dismissed keychain prompt).
	ErrAccessDenied = errors.New("secret store access denied")

	// ErrUnavailable is returned when the backend cannot be reached
	// (daemon not running, no GUI session, lock contention). Retryable
	// once the backend is started.
	ErrUnavailable = errors.New("secret store unavailable")

	// ErrCorrupted is returned when stored data fails integrity
	// checks. Not retryable; requires operator intervention.
	ErrCorrupted = errors.New("secret store corrupted")

	// ErrUnsupportedPlatform is returned when a variant was requested
	// explicitly but cannot run on this host.
	ErrUnsupportedPlatform = errors.New("secret store not supported on this platform")
)

// Store is the uniform contract over platform secret stores.
//
// Store overwrites any existing value for the key (upsert). Retrieve
// and Delete report ErrNotFound for absent keys; deleting twice is
// safe. Enumerate returns credential names only, never values, and
// only under the given service/scope prefix.
type Store interface {
	Store(key namespace.Key, value []byte) error
	Retrieve(key namespace.Key) ([]byte, error)
	Delete(key namespace.Key) error
	Enumerate(service string, scope namespace.Scope) ([]string, error)
}

// Backend variant names accepted in configuration.
const (
	BackendAuto          = "auto"
	BackendKeychain      = "keychain"
	BackendSecretService = "secretservice"
	BackendFile          = "file"
)

// Options selects and configures a backend variant.
type Options struct {
	// Backend is one of the Backend* constants. Empty means auto.
	Backend string

	// Dir is the directory for the encrypted-file variant.
	Dir string

	// Passphrase keys the encrypted-file variant. When empty a
	// locally-derived passphrase (hostname + user identity) is used.
	Passphrase string

	// LockTimeout bounds the wait for a file lock in the encrypted-file
	// variant. Zero means the default of 2 seconds.
	LockTimeout time.Duration
}

// Open probes the platform once and returns the concrete variant. With
// BackendAuto the native facility is preferred and the encrypted-file
// variant is the fallback when none is reachable.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendAuto:
		if runtime.GOOS == "darwin" && haveExecutable(securityBin) {
			slog.Debug("backend selected", "variant", BackendKeychain)
			return newKeychainStore(), nil
		}
		if runtime.GOOS == "linux" && haveExecutable(secretToolBin) {
			slog.Debug("backend selected", "variant", BackendSecretService)
			return newSecretServiceStore(), nil
		}
		slog.Debug("backend selected", "variant", BackendFile, "dir", opts.Dir)
		return newFileStore(opts)
	case BackendKeychain:
		if runtime.GOOS != "darwin" {
			return nil, fmt.Errorf("keychain backend requires macOS: %w", ErrUnsupportedPlatform)
		}
		if !haveExecutable(securityBin) {
			return nil, fmt.Errorf("security tool not found: %w", ErrUnavailable)
		}
		return newKeychainStore(), nil
	case BackendSecretService:
		if runtime.GOOS != "linux" {
			return nil, fmt.Errorf("secret-service backend requires Linux: %w", ErrUnsupportedPlatform)
		}
		if !haveExecutable(secretToolBin) {
			return nil, fmt.Errorf("secret-tool not found: %w", ErrUnavailable)
		}
		return newSecretServiceStore(), nil
	case BackendFile:
		return newFileStore(opts)
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}

func haveExecutable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
