// Package vault is the credential vault: the only surface the rest of
// the tool talks to for storing and retrieving secrets. It validates
// input, owns the type-tagged envelope serialization, resolves scopes,
// and translates backend failures into the shared error taxonomy.
//
// Values returned by Get and Resolve are sensitive: callers must never
// format them into logs or user-visible messages.
package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/keyward/keyward/internal/audit"
	"github.com/keyward/keyward/internal/backend"
	"github.com/keyward/keyward/internal/namespace"
)

// DefaultService is the service tag under which all keyward
// credentials are namespaced.
const DefaultService = "keyward"

// Vault orchestrates the namespace resolver and the platform adapter.
type Vault struct {
	store   backend.Store
	service string
	audit   *audit.Log // nil disables auditing
	log     *slog.Logger
}

// Option configures a Vault.
type Option func(*Vault)

// WithService overrides the service tag.
func WithService(service string) Option {
	return func(v *Vault) { v.service = service }
}

// WithAudit attaches an operation log. Mutating calls append an entry
// (action, name, scope; never the value).
func WithAudit(log *audit.Log) Option {
	return func(v *Vault) { v.audit = log }
}

// New builds a Vault on top of a backend store.
func New(store backend.Store, opts ...Option) *Vault {
	v := &Vault{
		store:   store,
		service: DefaultService,
		log:     slog.Default().With("component", "vault"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Vault) key(name string, scope namespace.Scope) (namespace.Key, error) {
	return namespace.NewKey(v.service, scope, name)
}

// Store validates and stores a credential. Storing over an existing
// key replaces the value (upsert). For TypeDatabase the value must be
// a JSON object with username, password and host present; it is
// re-serialized canonically before storage.
func (v *Vault) Store(name string, typ Type, value []byte, scope namespace.Scope) error {
	key, err := v.key(name, scope)
	if err != nil {
		return err
	}
	if len(value) == 0 {
		return fmt.Errorf("%w: value is required", namespace.ErrInvalidName)
	}

	if typ == TypeDatabase {
		canonical, err := canonicalDatabaseValue(value)
		if err != nil {
			return err
		}
		value = canonical
	}

	payload, err := sealEnvelope(typ, value)
	if err != nil {
		return err
	}

	if err := v.store.Store(key, payload); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	v.logOp("store", key)
	return nil
}

// canonicalDatabaseValue parses, validates and re-encodes a database
// credential so every stored copy has the same field order.
func canonicalDatabaseValue(value []byte) ([]byte, error) {
	var cred DatabaseCredential
	if err := json.Unmarshal(value, &cred); err != nil {
		return nil, fmt.Errorf("%w: database credential must be a JSON object", ErrInvalidType)
	}
	if err := cred.Validate(); err != nil {
		return nil, err
	}
	canonical, err := json.Marshal(&cred)
	if err != nil {
		return nil, fmt.Errorf("encode database credential: %w", err)
	}
	return canonical, nil
}

// Get retrieves a credential from an exact scope.
func (v *Vault) Get(name string, scope namespace.Scope) (Type, []byte, error) {
	key, err := v.key(name, scope)
	if err != nil {
		return "", nil, err
	}

	payload, err := v.store.Retrieve(key)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return "", nil, fmt.Errorf("credential %q not found in scope %s: %w", name, scope, backend.ErrNotFound)
		}
		return "", nil, fmt.Errorf("retrieve credential: %w", err)
	}
	return openEnvelope(payload)
}

// Resolve retrieves a credential without a pinned scope: the project
// scope is tried first, then global. At most one lookup per scope is
// performed; a full miss reports which scopes were searched so the
// caller can suggest the other one.
func (v *Vault) Resolve(name, project string) (Type, []byte, namespace.Scope, error) {
	if err := namespace.ValidateName(name); err != nil {
		return "", nil, namespace.Scope{}, err
	}

	order := namespace.SearchOrder(project)
	for _, scope := range order {
		typ, value, err := v.Get(name, scope)
		if err == nil {
			return typ, value, scope, nil
		}
		if !errors.Is(err, backend.ErrNotFound) {
			return "", nil, namespace.Scope{}, err
		}
	}

	searched := make([]string, len(order))
	for i, s := range order {
		searched[i] = s.String()
	}
	return "", nil, namespace.Scope{}, fmt.Errorf("credential %q not found (searched scopes: %s): %w",
		name, strings.Join(searched, ", "), backend.ErrNotFound)
}

// Delete removes a credential. Deleting an absent credential reports
// ErrNotFound, both the first and every following time.
func (v *Vault) Delete(name string, scope namespace.Scope) error {
	key, err := v.key(name, scope)
	if err != nil {
		return err
	}

	if err := v.store.Delete(key); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return fmt.Errorf("credential %q not found in scope %s: %w", name, scope, backend.ErrNotFound)
		}
		return fmt.Errorf("delete credential: %w", err)
	}

	v.logOp("delete", key)
	return nil
}

// List returns the credential names in a scope. Values are never
// returned or touched.
func (v *Vault) List(scope namespace.Scope) ([]string, error) {
	names, err := v.store.Enumerate(v.service, scope)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return names, nil
}

func (v *Vault) logOp(action string, key namespace.Key) {
	v.log.Debug("vault operation", "action", action, "name", key.Name, "scope", key.Scope.String())
	if v.audit == nil {
		return
	}
	if err := v.audit.Append(action, key.Name, key.Scope.String()); err != nil {
		v.log.Warn("audit append failed", "error", err)
	}
}
