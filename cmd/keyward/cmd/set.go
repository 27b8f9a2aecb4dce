package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/vault"
)

var (
	setType     string
	setFromFile string
)

var setCmd = &cobra.Command{
	Use:   "set <name> [value]",
	Short: "Store a credential",
	Long: `Store a credential in the vault.

If no value is provided it is read from --from-file, from stdin when
piped, or from an interactive no-echo prompt. The value is never
echoed back.

Database credentials (--type database) are JSON objects with username,
password and host required:
  {"username":"app","password":"...","host":"db.example.com","port":5432}

Examples:
  keyward set stripe-api-key --type api_key
  keyward set deploy-key --type ssh_key --from-file ~/.ssh/id_ed25519 --project acme
  cat creds.json | keyward set db-main --type database`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.Flags().StringVarP(&setType, "type", "t", "", "credential type (api_key|ssh_key|oauth_token|database|other)")
	setCmd.Flags().StringVar(&setFromFile, "from-file", "", "read the value from a file")
}

func runSet(_ *cobra.Command, args []string) error {
	name := args[0]

	typ, err := vault.ParseType(setType)
	if err != nil {
		return err
	}

	value, err := readValue(args)
	if err != nil {
		return err
	}

	scope, err := resolveScope()
	if err != nil {
		return err
	}

	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	if err := v.Store(name, typ, value, scope); err != nil {
		return err
	}

	// Confirm without echoing any part of the value.
	Success("Stored %q (%s) in scope %s", name, typ, scope)
	return nil
}

func readValue(args []string) ([]byte, error) {
	if len(args) == 2 {
		return []byte(args[1]), nil
	}

	if setFromFile != "" {
		data, err := os.ReadFile(setFromFile)
		if err != nil {
			return nil, fmt.Errorf("read value file: %w", err)
		}
		return data, nil
	}

	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		// Piped input.
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}

	return promptSecret("Enter value: ")
}
