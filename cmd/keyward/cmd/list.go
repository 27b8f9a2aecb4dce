package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/vault"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List credential names",
	Long: `List the credential names in a scope, grouped by category.

Only names are listed; values never leave the vault. The grouping is a
display convenience derived from the name, not a security property.`,
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

var categoryLabels = map[vault.Category]string{
	vault.CategoryAPIKeys:   "API keys",
	vault.CategorySSHKeys:   "SSH / deploy keys",
	vault.CategoryOAuth:     "OAuth tokens",
	vault.CategoryDatabases: "Database credentials",
	vault.CategoryOther:     "Other",
}

func runList(_ *cobra.Command, _ []string) error {
	scope, err := resolveScope()
	if err != nil {
		return err
	}

	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	groups, err := v.ListGrouped(scope)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	}

	total := 0
	for _, names := range groups {
		total += len(names)
	}
	if total == 0 {
		fmt.Fprintf(os.Stderr, "No credentials in scope %s.\n\n", scope)
		fmt.Fprintln(os.Stderr, "Add one with: keyward set NAME")
		return nil
	}

	for _, category := range vault.Categories() {
		names := groups[category]
		if len(names) == 0 {
			continue
		}
		fmt.Println(Bold("%s:", categoryLabels[category]))
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
	}
	return nil
}
