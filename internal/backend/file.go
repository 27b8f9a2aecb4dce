package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/keyward/keyward/internal/crypto"
	"github.com/keyward/keyward/internal/namespace"
)

const (
	credExt        = ".cred"
	lockExt        = ".lock"
	defaultTimeout = 2 * time.Second
	lockRetry      = 50 * time.Millisecond
)

// envelopeMagic marks the on-disk format. The layout of one credential
// file is: magic (4) + salt (16) + nonce (12) + ciphertext + tag (16).
var envelopeMagic = []byte("KWV1")

// fileStore is the encrypted-file fallback variant. Each credential is
// one authenticated-encryption envelope under dir, named by a
// deterministic base64url encoding of the full backend key. An
// exclusive advisory lock per credential covers both read-decrypt and
// write-encrypt, so a reader can never observe a half-written file.
type fileStore struct {
	dir         string
	passphrase  []byte
	lockTimeout time.Duration
}

func newFileStore(opts Options) (*fileStore, error) {
	dir := opts.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".keyward", "secrets")
	}
	// 0700 before any credential is written; the directory must never
	// be readable by other users.
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create secrets directory: %w", err)
	}

	passphrase := []byte(opts.Passphrase)
	if len(passphrase) == 0 {
		p, err := localPassphrase()
		if err != nil {
			return nil, err
		}
		passphrase = p
	}

	timeout := opts.LockTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &fileStore{
		dir:         dir,
		passphrase:  passphrase,
		lockTimeout: timeout,
	}, nil
}

// localPassphrase derives a machine-local passphrase from the host name
// and user identity. Weaker than a configured passphrase; it protects
// against casual file reads, not against an attacker with the same
// local account.
func localPassphrase() ([]byte, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("resolve hostname: %w", err)
	}
	u, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}
	return []byte(host + "\x00" + u.Uid + "\x00" + u.Username), nil
}

func (s *fileStore) credPath(key namespace.Key) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(key.BackendKey()))
	return filepath.Join(s.dir, encoded+credExt)
}

// acquireLock takes the per-credential exclusive lock with a bounded
// wait. Contention past the timeout surfaces as ErrUnavailable.
func (s *fileStore) acquireLock(path string) (*flock.Flock, error) {
	lock := flock.New(path + lockExt)

	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	ok, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil || !ok {
		return nil, fmt.Errorf("credential file is locked by another process: %w", ErrUnavailable)
	}
	return lock, nil
}

func (s *fileStore) Store(key namespace.Key, value []byte) error {
	path := s.credPath(key)

	lock, err := s.acquireLock(path)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}
	dk, err := crypto.DeriveKey(s.passphrase, salt)
	if err != nil {
		return err
	}
	defer crypto.ZeroBytes(dk)

	sealed, err := crypto.Encrypt(dk, value)
	if err != nil {
		return fmt.Errorf("encrypt credential: %w", err)
	}

	envelope := make([]byte, 0, len(envelopeMagic)+len(salt)+len(sealed))
	envelope = append(envelope, envelopeMagic...)
	envelope = append(envelope, salt...)
	envelope = append(envelope, sealed...)

	return atomicWrite(path, envelope)
}

// atomicWrite writes to an owner-only temp file in the same directory
// and renames it over the destination, so the prior value stays
// retrievable until the new one is fully on disk.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// CreateTemp opens with 0600, so permissions are restricted before
	// the first byte is written.
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close credential file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename credential file: %w", err)
	}
	return nil
}

func (s *fileStore) Retrieve(key namespace.Key) ([]byte, error) {
	path := s.credPath(key)

	lock, err := s.acquireLock(path)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	envelope, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%q: %w", key.Name, ErrNotFound)
		}
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	if len(envelope) < len(envelopeMagic)+crypto.SaltSize ||
		!bytes.Equal(envelope[:len(envelopeMagic)], envelopeMagic) {
		return nil, fmt.Errorf("credential file %q is truncated or not a keyward envelope: %w", filepath.Base(path), ErrCorrupted)
	}

	salt := envelope[len(envelopeMagic) : len(envelopeMagic)+crypto.SaltSize]
	sealed := envelope[len(envelopeMagic)+crypto.SaltSize:]

	dk, err := crypto.DeriveKey(s.passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroBytes(dk)

	value, err := crypto.Decrypt(dk, sealed)
	if err != nil {
		// Authentication failure: tampering, truncation, or a changed
		// passphrase. Never return garbage plaintext.
		return nil, fmt.Errorf("credential file %q failed integrity check: %w", filepath.Base(path), ErrCorrupted)
	}
	return value, nil
}

func (s *fileStore) Delete(key namespace.Key) error {
	path := s.credPath(key)

	lock, err := s.acquireLock(path)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%q: %w", key.Name, ErrNotFound)
		}
		return fmt.Errorf("remove credential file: %w", err)
	}
	// The lock file stays behind: unlinking it while held would let a
	// later acquirer lock a fresh inode alongside the current holder.
	return nil
}

func (s *fileStore) Enumerate(service string, scope namespace.Scope) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read secrets directory: %w", err)
	}

	prefix := namespace.Prefix(service, scope)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), credExt) {
			continue
		}
		decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(entry.Name(), credExt))
		if err != nil {
			continue // foreign file, not ours
		}
		backendKey := string(decoded)
		if !strings.HasPrefix(backendKey, prefix) {
			continue
		}
		key, err := namespace.ParseBackendKey(backendKey)
		if err != nil {
			continue
		}
		names = append(names, key.Name)
	}
	sort.Strings(names)
	return names, nil
}

var _ Store = (*fileStore)(nil)
