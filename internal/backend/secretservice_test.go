package backend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/namespace"
)

// fakeSecretTool emulates the subset of the `secret-tool` CLI the
// secret-service variant uses, keyed by the (service, scope, name)
// attribute triple.
type fakeSecretTool struct {
	items map[[3]string][]byte
}

func newFakeSecretTool() *fakeSecretTool {
	return &fakeSecretTool{items: make(map[[3]string][]byte)}
}

func parseAttrPairs(args []string) map[string]string {
	attrs := map[string]string{}
	for i := 0; i+1 < len(args); i += 2 {
		attrs[args[i]] = args[i+1]
	}
	return attrs
}

func (f *fakeSecretTool) run(stdin []byte, args ...string) ([]byte, error) {
	op := args[0]
	rest := args[1:]

	switch op {
	case "store":
		rest = rest[2:] // --label and its value
		attrs := parseAttrPairs(rest)
		f.items[[3]string{attrs["service"], attrs["scope"], attrs["name"]}] = stdin
		return nil, nil
	case "lookup":
		attrs := parseAttrPairs(rest)
		value, ok := f.items[[3]string{attrs["service"], attrs["scope"], attrs["name"]}]
		if !ok {
			return nil, ErrNotFound
		}
		return value, nil
	case "clear":
		// secret-tool clear exits 0 whether or not anything matched.
		attrs := parseAttrPairs(rest)
		delete(f.items, [3]string{attrs["service"], attrs["scope"], attrs["name"]})
		return nil, nil
	case "search":
		rest = rest[1:] // --all
		attrs := parseAttrPairs(rest)
		var out []byte
		for id := range f.items {
			if id[0] == attrs["service"] && id[1] == attrs["scope"] {
				out = append(out, fmt.Sprintf("[/org/freedesktop/secrets/collection/login/%s]\nattribute.name = %s\n", id[2], id[2])...)
			}
		}
		return out, nil
	default:
		return nil, ErrUnavailable
	}
}

func newTestSecretService() (*secretServiceStore, *fakeSecretTool) {
	fake := newFakeSecretTool()
	return &secretServiceStore{run: fake.run}, fake
}

func TestSecretServiceStore_RoundTrip(t *testing.T) {
	s, _ := newTestSecretService()
	key := namespace.Key{Service: "keyward", Scope: namespace.Global(), Name: "api-key"}
	value := []byte("value-with\nnewline\x00and-null")

	require.NoError(t, s.Store(key, value))

	got, err := s.Retrieve(key)
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestSecretServiceStore_DeleteIdempotent(t *testing.T) {
	s, _ := newTestSecretService()
	key := namespace.Key{Service: "keyward", Scope: namespace.Global(), Name: "api-key"}

	require.NoError(t, s.Store(key, []byte("v")))
	require.NoError(t, s.Delete(key))

	// clear always exits 0, so the lookup-before-clear step is what
	// makes the absent case report ErrNotFound.
	assert.ErrorIs(t, s.Delete(key), ErrNotFound)
	assert.ErrorIs(t, s.Delete(key), ErrNotFound)
}

func TestSecretServiceStore_Enumerate(t *testing.T) {
	s, _ := newTestSecretService()
	acme, err := namespace.Project("acme")
	require.NoError(t, err)

	require.NoError(t, s.Store(namespace.Key{Service: "keyward", Scope: acme, Name: "deploy-key"}, []byte("v1")))
	require.NoError(t, s.Store(namespace.Key{Service: "keyward", Scope: acme, Name: "api-key"}, []byte("v2")))
	require.NoError(t, s.Store(namespace.Key{Service: "keyward", Scope: namespace.Global(), Name: "other"}, []byte("v3")))

	names, err := s.Enumerate("keyward", acme)
	require.NoError(t, err)
	assert.Equal(t, []string{"api-key", "deploy-key"}, names)

	names, err = s.Enumerate("keyward", namespace.Global())
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, names)
}

func TestSecretServiceStore_EnumerateEmpty(t *testing.T) {
	s, _ := newTestSecretService()
	names, err := s.Enumerate("keyward", namespace.Global())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMapSecretToolError(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		stderr string
		want   error
	}{
		{"lookup miss", "lookup", "", ErrNotFound},
		{"search miss", "search", "", ErrNotFound},
		{"daemon down", "lookup", "Error: Cannot autolaunch D-Bus without X11 $DISPLAY", ErrUnavailable},
		{"collection locked", "store", "Error: the collection is locked", ErrAccessDenied},
		{"prompt dismissed", "lookup", "Error: prompt dismissed", ErrAccessDenied},
		{"store failure", "store", "Error: disk full", ErrUnavailable},
		{"clear failure", "clear", "Error: disk full", ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapSecretToolError(tt.op, tt.stderr), tt.want)
		})
	}
}
