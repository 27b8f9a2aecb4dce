package backend

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/namespace"
)

func newTestFileStore(t *testing.T) *fileStore {
	t.Helper()
	s, err := newFileStore(Options{
		Dir:        t.TempDir(),
		Passphrase: "test-passphrase",
	})
	require.NoError(t, err)
	return s
}

func testKey(t *testing.T, scope namespace.Scope, name string) namespace.Key {
	t.Helper()
	key, err := namespace.NewKey("keyward", scope, name)
	require.NoError(t, err)
	return key
}

func TestFileStore_RoundTrip(t *testing.T) {
	s := newTestFileStore(t)
	key := testKey(t, namespace.Global(), "api-key")
	value := []byte("sk-abcdef0123456789abcdef0123456789")

	require.NoError(t, s.Store(key, value))

	got, err := s.Retrieve(key)
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestFileStore_Overwrite(t *testing.T) {
	s := newTestFileStore(t)
	key := testKey(t, namespace.Global(), "api-key")

	require.NoError(t, s.Store(key, []byte("first")))
	require.NoError(t, s.Store(key, []byte("second")))

	got, err := s.Retrieve(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestFileStore_RetrieveMissing(t *testing.T) {
	s := newTestFileStore(t)
	key := testKey(t, namespace.Global(), "nope")

	_, err := s.Retrieve(key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_DeleteIdempotent(t *testing.T) {
	s := newTestFileStore(t)
	key := testKey(t, namespace.Global(), "api-key")

	require.NoError(t, s.Store(key, []byte("value")))
	require.NoError(t, s.Delete(key))

	// Both the first and second delete of an absent key report
	// ErrNotFound, never anything else.
	assert.ErrorIs(t, s.Delete(key), ErrNotFound)
	assert.ErrorIs(t, s.Delete(key), ErrNotFound)
}

func TestFileStore_DeleteKeepsLockFile(t *testing.T) {
	s := newTestFileStore(t)
	key := testKey(t, namespace.Global(), "api-key")

	require.NoError(t, s.Store(key, []byte("value")))
	require.NoError(t, s.Delete(key))

	// The lock file outlives the credential so every process always
	// locks the same inode.
	_, err := os.Stat(s.credPath(key) + lockExt)
	assert.NoError(t, err)

	// The leftover lock file is not listed and does not block reuse of
	// the key.
	names, err := s.Enumerate("keyward", namespace.Global())
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, s.Store(key, []byte("again")))
	got, err := s.Retrieve(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("again"), got)
}

func TestFileStore_ScopeIsolation(t *testing.T) {
	s := newTestFileStore(t)
	acme, err := namespace.Project("acme")
	require.NoError(t, err)

	globalKey := testKey(t, namespace.Global(), "token")
	scopedKey := testKey(t, acme, "token")

	require.NoError(t, s.Store(globalKey, []byte("global-value")))
	require.NoError(t, s.Store(scopedKey, []byte("acme-value")))

	got, err := s.Retrieve(globalKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("global-value"), got)

	got, err = s.Retrieve(scopedKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("acme-value"), got)

	// Deleting the project-scoped credential leaves the global one.
	require.NoError(t, s.Delete(scopedKey))
	_, err = s.Retrieve(scopedKey)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = s.Retrieve(globalKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("global-value"), got)
}

func TestFileStore_Enumerate(t *testing.T) {
	s := newTestFileStore(t)
	acme, err := namespace.Project("acme")
	require.NoError(t, err)

	require.NoError(t, s.Store(testKey(t, acme, "deploy-key"), []byte("v1")))
	require.NoError(t, s.Store(testKey(t, acme, "api-key"), []byte("v2")))
	require.NoError(t, s.Store(testKey(t, namespace.Global(), "other"), []byte("v3")))

	names, err := s.Enumerate("keyward", acme)
	require.NoError(t, err)
	assert.Equal(t, []string{"api-key", "deploy-key"}, names)

	names, err = s.Enumerate("keyward", namespace.Global())
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, names)
}

func TestFileStore_EnumerateIgnoresForeignFiles(t *testing.T) {
	s := newTestFileStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "README.txt"), []byte("hi"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "not-base64!.cred"), []byte("hi"), 0o600))

	names, err := s.Enumerate("keyward", namespace.Global())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFileStore_CorruptionDetected(t *testing.T) {
	s := newTestFileStore(t)
	key := testKey(t, namespace.Global(), "api-key")
	require.NoError(t, s.Store(key, []byte("value")))

	path := s.credPath(key)

	t.Run("tampered", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		data[len(data)-1] ^= 0x01
		require.NoError(t, os.WriteFile(path, data, 0o600))

		_, err = s.Retrieve(key)
		assert.ErrorIs(t, err, ErrCorrupted)
	})

	t.Run("truncated", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("KWV1"), 0o600))

		_, err := s.Retrieve(key)
		assert.ErrorIs(t, err, ErrCorrupted)
	})

	t.Run("wrong magic", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, make([]byte, 64), 0o600))

		_, err := s.Retrieve(key)
		assert.ErrorIs(t, err, ErrCorrupted)
	})
}

func TestFileStore_WrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	key := namespace.Key{Service: "keyward", Scope: namespace.Global(), Name: "api-key"}

	s1, err := newFileStore(Options{Dir: dir, Passphrase: "one"})
	require.NoError(t, err)
	require.NoError(t, s1.Store(key, []byte("value")))

	s2, err := newFileStore(Options{Dir: dir, Passphrase: "two"})
	require.NoError(t, err)
	_, err = s2.Retrieve(key)
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestFileStore_OwnerOnlyPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}

	s := newTestFileStore(t)
	key := testKey(t, namespace.Global(), "api-key")
	require.NoError(t, s.Store(key, []byte("value")))

	info, err := os.Stat(s.credPath(key))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(s.dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}

func TestOpen_ExplicitFile(t *testing.T) {
	s, err := Open(Options{Backend: BackendFile, Dir: t.TempDir(), Passphrase: "p"})
	require.NoError(t, err)
	assert.IsType(t, (*fileStore)(nil), s)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(Options{Backend: "vaultron"})
	assert.Error(t, err)
}
