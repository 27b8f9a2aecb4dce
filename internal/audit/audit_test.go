package audit

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLog_AppendAndList(t *testing.T) {
	l := openTestLog(t)

	require.NoError(t, l.Append("store", "api-key", "global"))
	require.NoError(t, l.Append("store", "deploy-key", "project:acme"))
	require.NoError(t, l.Append("delete", "api-key", "global"))

	entries, err := l.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, "delete", entries[0].Action)
	assert.Equal(t, "api-key", entries[0].Name)
	assert.Equal(t, "store", entries[2].Action)

	for _, e := range entries {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestLog_ListLimit(t *testing.T) {
	l := openTestLog(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Append("store", "k", "global"))
	}

	entries, err := l.List(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
