package namespace

import (
	"errors"
	"testing"
)

func TestScopeString(t *testing.T) {
	if got := Global().String(); got != "global" {
		t.Errorf("Global().String() = %q, want %q", got, "global")
	}

	p, err := Project("acme")
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if got := p.String(); got != "project:acme" {
		t.Errorf("Project(acme).String() = %q, want %q", got, "project:acme")
	}
}

func TestProject_Invalid(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"contains separator", "acme:prod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Project(tt.id); !errors.Is(err, ErrInvalidName) {
				t.Errorf("Project(%q) error = %v, want ErrInvalidName", tt.id, err)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "deploy-key", false},
		{"with dots", "api.key.v2", false},
		{"with colon", "oauth:github", false},
		{"empty", "", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("ValidateName(%q) error = %v, want ErrInvalidName", tt.input, err)
			}
		})
	}
}

func TestBackendKey(t *testing.T) {
	acme, _ := Project("acme")

	tests := []struct {
		name  string
		scope Scope
		key   string
		want  string
	}{
		{"global", Global(), "api-key", "keyward:global:api-key"},
		{"project", acme, "deploy-key", "keyward:project:acme:deploy-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := NewKey("keyward", tt.scope, tt.key)
			if err != nil {
				t.Fatalf("NewKey() error = %v", err)
			}
			if got := k.BackendKey(); got != tt.want {
				t.Errorf("BackendKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Same name in different scopes must produce distinct backend keys.
func TestBackendKey_ScopesNeverCollide(t *testing.T) {
	acme, _ := Project("acme")

	global, err := NewKey("keyward", Global(), "token")
	if err != nil {
		t.Fatalf("NewKey() error = %v", err)
	}
	scoped, err := NewKey("keyward", acme, "token")
	if err != nil {
		t.Fatalf("NewKey() error = %v", err)
	}

	if global.BackendKey() == scoped.BackendKey() {
		t.Errorf("global and project keys collide: %q", global.BackendKey())
	}
}

func TestParseBackendKey_RoundTrip(t *testing.T) {
	acme, _ := Project("acme")

	keys := []Key{
		{Service: "keyward", Scope: Global(), Name: "api-key"},
		{Service: "keyward", Scope: acme, Name: "deploy-key"},
		{Service: "keyward", Scope: acme, Name: "oauth:github"},
	}

	for _, want := range keys {
		t.Run(want.BackendKey(), func(t *testing.T) {
			got, err := ParseBackendKey(want.BackendKey())
			if err != nil {
				t.Fatalf("ParseBackendKey() error = %v", err)
			}
			if got != want {
				t.Errorf("ParseBackendKey() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestParseBackendKey_Malformed(t *testing.T) {
	inputs := []string{"", "keyward", "keyward:bogus:name", "keyward:project::name"}
	for _, in := range inputs {
		if _, err := ParseBackendKey(in); err == nil {
			t.Errorf("ParseBackendKey(%q) expected error, got nil", in)
		}
	}
}

func TestSearchOrder(t *testing.T) {
	order := SearchOrder("acme")
	if len(order) != 2 {
		t.Fatalf("SearchOrder(acme) returned %d scopes, want 2", len(order))
	}
	if order[0].ProjectID() != "acme" || !order[1].IsGlobal() {
		t.Errorf("SearchOrder(acme) = %v, want project then global", order)
	}

	order = SearchOrder("")
	if len(order) != 1 || !order[0].IsGlobal() {
		t.Errorf("SearchOrder(\"\") = %v, want just global", order)
	}
}
