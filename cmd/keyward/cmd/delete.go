package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a credential",
	Long: `Delete a credential from the vault.

By default you will be prompted to confirm the deletion.
Use --yes or -y to skip the confirmation prompt.`,
	Aliases: []string{"delete", "remove"},
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteForce, "yes", "y", false, "Skip confirmation prompt")
}

func runDelete(_ *cobra.Command, args []string) error {
	name := args[0]

	scope, err := resolveScope()
	if err != nil {
		return err
	}

	if !deleteForce {
		if !PromptConfirm(fmt.Sprintf("Delete credential %q from scope %s?", name, scope)) {
			Info("Canceled")
			return nil
		}
	}

	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	if err := v.Delete(name, scope); err != nil {
		return err
	}

	Success("Deleted %q from scope %s", name, scope)
	return nil
}
