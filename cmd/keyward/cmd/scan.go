package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/guard"
)

var (
	scanContext string
	scanPath    string
	scanFile    string
)

var scanCmd = &cobra.Command{
	Use:   "scan [text]",
	Short: "Scan text for secret material",
	Long: `Scan candidate text before acting on it: a shell command, file
content, or a staged diff. The verdict is allow, warn, or block.

A block exits with code 4 so hooks and wrappers can stop the action:

  git diff --staged | keyward scan --context commit || exit 1

Exceptions configured in config.yaml (path globs or context tags)
suppress findings in matching contexts, e.g. test fixtures.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanContext, "context", string(guard.ActionCommand), "action context (command|file_write|commit)")
	scanCmd.Flags().StringVar(&scanPath, "path", "", "target file path, matched against exception globs")
	scanCmd.Flags().StringVar(&scanFile, "file", "", "scan the contents of a file")
}

func runScan(_ *cobra.Command, args []string) error {
	text, err := readScanInput(args)
	if err != nil {
		return err
	}

	gate, err := newGate()
	if err != nil {
		return err
	}

	ctx := guard.ActionContext{
		Kind: guard.ActionKind(scanContext),
		Path: scanPath,
	}

	verdict, err := gate.Check(text, ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(verdict); err != nil {
			return err
		}
	}

	switch verdict.Decision {
	case guard.Allow:
		if !jsonOutput {
			Success("%s", verdict.Explain())
		}
		return nil
	case guard.Warn:
		if !jsonOutput {
			Warning("%s", verdict.Explain())
		}
		return nil
	default:
		if !jsonOutput {
			Error("%s", verdict.Explain())
		}
		return fmt.Errorf("%d finding(s): %w", len(verdict.Reasons), errLeakBlocked)
	}
}

func readScanInput(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	if scanFile != "" {
		data, err := os.ReadFile(scanFile)
		if err != nil {
			return "", fmt.Errorf("read scan file: %w", err)
		}
		return string(data), nil
	}

	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	return "", fmt.Errorf("nothing to scan: pass text, --file, or pipe stdin")
}
