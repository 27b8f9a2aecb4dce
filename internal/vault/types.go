package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Type tags what kind of credential a stored value is. The tag is
// persisted inside the envelope so Get can hand the value back with
// its original meaning.
type Type string

// Known credential types.
const (
	TypeAPIKey     Type = "api_key"
	TypeSSHKey     Type = "ssh_key"
	TypeOAuthToken Type = "oauth_token"
	TypeDatabase   Type = "database"
	TypeOther      Type = "other"
)

// ErrInvalidType is returned when a credential type string is not one
// of the known types.
var ErrInvalidType = errors.New("invalid credential type")

// ParseType validates a credential type string.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(s)) {
	case TypeAPIKey, TypeSSHKey, TypeOAuthToken, TypeDatabase, TypeOther:
		return Type(strings.ToLower(s)), nil
	case "":
		return TypeOther, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: api_key, ssh_key, oauth_token, database, other)", ErrInvalidType, s)
	}
}

// DatabaseCredential is the structured form of a TypeDatabase value.
// It is serialized to canonical JSON by the vault before storage; the
// backend only ever sees opaque bytes.
type DatabaseCredential struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port,omitempty"`
	Database string `json:"database,omitempty"`
}

// Validate checks that the required sub-fields are present.
func (d *DatabaseCredential) Validate() error {
	var missing []string
	if d.Username == "" {
		missing = append(missing, "username")
	}
	if d.Password == "" {
		missing = append(missing, "password")
	}
	if d.Host == "" {
		missing = append(missing, "host")
	}
	if len(missing) > 0 {
		return fmt.Errorf("database credential missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// envelope is the stored payload: the type tag plus the raw value.
// JSON encodes Value as base64, which keeps binary values intact.
type envelope struct {
	Type  Type   `json:"type"`
	Value []byte `json:"value"`
}

func sealEnvelope(typ Type, value []byte) ([]byte, error) {
	data, err := json.Marshal(envelope{Type: typ, Value: value})
	if err != nil {
		return nil, fmt.Errorf("encode credential envelope: %w", err)
	}
	return data, nil
}

func openEnvelope(data []byte) (Type, []byte, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("decode credential envelope: %w", err)
	}
	if env.Type == "" {
		env.Type = TypeOther
	}
	return env.Type, env.Value, nil
}
