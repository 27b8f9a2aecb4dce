package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/audit"
	"github.com/keyward/keyward/internal/config"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent vault operations",
	Long: `Show the operation log: which credentials were stored or deleted
and when. The log records names and scopes only, never values.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "maximum entries to show (0 for all)")
}

func runAudit(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.Audit {
		return fmt.Errorf("auditing is disabled (set audit: true to enable)")
	}

	log, err := audit.Open(auditPath(cfg))
	if err != nil {
		return err
	}
	defer log.Close()

	entries, err := log.List(auditLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No audit entries.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  %-6s  %s  (%s)\n",
			e.Timestamp.Format(time.RFC3339), e.Action, e.Name, e.Scope)
	}
	return nil
}
