package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/namespace"
	"github.com/keyward/keyward/internal/vault"
)

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Retrieve a credential value",
	Long: `Retrieve a credential value.

Without --global the project scope is searched first, then global.
The value goes to stdout and messages to stderr, so the command is
pipe-friendly:

  DB_URL=$(keyward get database-url --project acme)`,
	Aliases: []string{"g"},
	Args:    cobra.ExactArgs(1),
	RunE:    runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(_ *cobra.Command, args []string) error {
	name := args[0]

	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	var (
		typ   vault.Type
		value []byte
		scope namespace.Scope
	)
	if globalScope {
		scope = namespace.Global()
		typ, value, err = v.Get(name, scope)
	} else {
		typ, value, scope, err = v.Resolve(name, currentProject())
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]string{
			"name":  name,
			"type":  string(typ),
			"scope": scope.String(),
			"value": string(value),
		})
	}

	_, err = os.Stdout.Write(value)
	return err
}
