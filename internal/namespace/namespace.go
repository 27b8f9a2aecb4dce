// Package namespace defines how credentials are addressed: a key is the
// triple (service tag, scope, name), rendered for the backend as
// "service:scope:name". Scopes keep project credentials and global
// credentials structurally apart, so the same name in two scopes can
// never collide in the backend.
package namespace

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins the key components in the backend key string.
const Separator = ":"

var (
	// ErrInvalidName is returned when a credential name or project
	// identifier cannot round-trip through the backend key encoding.
	ErrInvalidName = errors.New("invalid name")

	errEmptyName      = fmt.Errorf("%w: name is required", ErrInvalidName)
	errEmptyProject   = fmt.Errorf("%w: project identifier is required", ErrInvalidName)
	errProjectSep     = fmt.Errorf("%w: project identifier must not contain %q", ErrInvalidName, Separator)
	errNameBadChars   = fmt.Errorf("%w: name must not contain path separators or null bytes", ErrInvalidName)
	errEmptyService   = fmt.Errorf("%w: service tag is required", ErrInvalidName)
	errServiceBadChar = fmt.Errorf("%w: service tag must not contain %q", ErrInvalidName, Separator)
)

// Scope identifies where a credential lives: inside one project or
// globally. The zero value is the global scope.
type Scope struct {
	project string
}

// Global returns the global scope.
func Global() Scope {
	return Scope{}
}

// Project returns a project scope for the given identifier. The
// identifier must be non-empty and must not contain the key separator,
// otherwise scoped keys would be ambiguous.
func Project(id string) (Scope, error) {
	if id == "" {
		return Scope{}, errEmptyProject
	}
	if strings.Contains(id, Separator) {
		return Scope{}, errProjectSep
	}
	return Scope{project: id}, nil
}

// IsGlobal reports whether the scope is the global scope.
func (s Scope) IsGlobal() bool {
	return s.project == ""
}

// ProjectID returns the project identifier, or "" for the global scope.
func (s Scope) ProjectID() string {
	return s.project
}

// String renders the scope segment of a backend key: "global" or
// "project:<id>".
func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return "project" + Separator + s.project
}

// Key addresses one credential in the backend.
type Key struct {
	Service string
	Scope   Scope
	Name    string
}

// NewKey validates the components and builds a key. Names must be
// non-empty and free of path separators and null bytes so they survive
// every backend's key-string encoding.
func NewKey(service string, scope Scope, name string) (Key, error) {
	if service == "" {
		return Key{}, errEmptyService
	}
	if strings.Contains(service, Separator) {
		return Key{}, errServiceBadChar
	}
	if err := ValidateName(name); err != nil {
		return Key{}, err
	}
	return Key{Service: service, Scope: scope, Name: name}, nil
}

// ValidateName checks that a credential name can be used as the last
// key segment on every backend.
func ValidateName(name string) error {
	if name == "" {
		return errEmptyName
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return errNameBadChars
	}
	return nil
}

// BackendKey renders the full backend key string:
// "{service}:{scope}:{name}". The name is the final segment, so parsing
// from the left is unambiguous even if the name itself contains the
// separator.
func (k Key) BackendKey() string {
	return k.Service + Separator + k.Scope.String() + Separator + k.Name
}

// Prefix returns the backend key prefix shared by all credentials under
// a service and scope, including the trailing separator.
func Prefix(service string, scope Scope) string {
	return service + Separator + scope.String() + Separator
}

// ParseBackendKey is the inverse of BackendKey. It is used by the
// file backend to recover keys from encoded filenames.
func ParseBackendKey(s string) (Key, error) {
	service, rest, ok := strings.Cut(s, Separator)
	if !ok || service == "" {
		return Key{}, fmt.Errorf("%w: malformed backend key", ErrInvalidName)
	}

	var scope Scope
	switch {
	case strings.HasPrefix(rest, "global"+Separator):
		rest = strings.TrimPrefix(rest, "global"+Separator)
	case strings.HasPrefix(rest, "project"+Separator):
		rest = strings.TrimPrefix(rest, "project"+Separator)
		project, name, ok := strings.Cut(rest, Separator)
		if !ok || project == "" {
			return Key{}, fmt.Errorf("%w: malformed backend key", ErrInvalidName)
		}
		scope = Scope{project: project}
		rest = name
	default:
		return Key{}, fmt.Errorf("%w: malformed backend key", ErrInvalidName)
	}

	if err := ValidateName(rest); err != nil {
		return Key{}, err
	}
	return Key{Service: service, Scope: scope, Name: rest}, nil
}

// SearchOrder returns the scopes to try, in order, when the caller did
// not pin a scope: the project scope first (when a project is known),
// then global. Callers perform at most one lookup per returned scope.
func SearchOrder(project string) []Scope {
	if project == "" {
		return []Scope{Global()}
	}
	return []Scope{{project: project}, Global()}
}
