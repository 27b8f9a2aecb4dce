package vault

import (
	"strings"

	"github.com/keyward/keyward/internal/namespace"
)

// Category is an advisory display grouping for credential names. It is
// derived from keyword heuristics on the name alone and must never be
// used for security decisions; the authoritative type tag lives inside
// the stored envelope.
type Category string

// Display categories, in fixed priority order.
const (
	CategoryAPIKeys   Category = "api_keys"
	CategorySSHKeys   Category = "ssh_keys"
	CategoryOAuth     Category = "oauth_tokens"
	CategoryDatabases Category = "databases"
	CategoryOther     Category = "other"
)

// categoryRules is checked in order; a name matching several keyword
// groups lands in the first one (first-match-wins).
var categoryRules = []struct {
	category Category
	keywords []string
}{
	{CategoryAPIKeys, []string{"api", "key"}},
	{CategorySSHKeys, []string{"ssh", "deploy"}},
	{CategoryOAuth, []string{"oauth", "token"}},
	{CategoryDatabases, []string{"db", "database"}},
}

// Categories lists all display categories in priority order.
func Categories() []Category {
	return []Category{CategoryAPIKeys, CategorySSHKeys, CategoryOAuth, CategoryDatabases, CategoryOther}
}

// Categorize assigns a credential name to a display category.
func Categorize(name string) Category {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

// ListGrouped returns the credential names in a scope grouped by
// display category. Categories with no names are omitted.
func (v *Vault) ListGrouped(scope namespace.Scope) (map[Category][]string, error) {
	names, err := v.List(scope)
	if err != nil {
		return nil, err
	}

	groups := make(map[Category][]string)
	for _, name := range names {
		c := Categorize(name)
		groups[c] = append(groups[c], name)
	}
	return groups, nil
}
