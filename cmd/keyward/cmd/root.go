// Package cmd provides the CLI commands for keyward.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/keyward/keyward/internal/backend"
	"github.com/keyward/keyward/internal/logging"
	"github.com/keyward/keyward/internal/namespace"
	"github.com/keyward/keyward/internal/vault"
)

var (
	cfgFile     string
	backendName string
	projectName string
	globalScope bool
	jsonOutput  bool
	verbose     bool
)

// Exit codes for the CLI.
const (
	exitOK          = 0
	exitNotFound    = 1
	exitBackend     = 2
	exitInvalidArgs = 3
	exitLeakBlocked = 4
)

// errLeakBlocked marks a Block verdict so Execute can map it to its
// exit code. The verdict itself is data, not a failure; the sentinel
// only exists at the CLI boundary.
var errLeakBlocked = errors.New("leak blocked")

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "keyward",
	Short: "Keyward - credential vault and leak gate for development tools",
	Long: `Keyward stores credentials in the platform secret store (or an
encrypted local fallback) and scans commands, file writes and commits
for secret material before they happen.

Get started:
  keyward set API_KEY              Store a credential (prompts for the value)
  keyward get API_KEY              Retrieve a credential
  keyward list                     List credential names
  keyward scan "some command"      Check text for leaks

Examples:
  keyward set deploy-key --type ssh_key --from-file ~/.ssh/id_ed25519 --project acme
  keyward get deploy-key --project acme
  git diff --staged | keyward scan --context commit`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		Error("%v", err)
		printRemediation(err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, errLeakBlocked):
		return exitLeakBlocked
	case errors.Is(err, backend.ErrNotFound):
		return exitNotFound
	case errors.Is(err, backend.ErrAccessDenied),
		errors.Is(err, backend.ErrUnavailable),
		errors.Is(err, backend.ErrCorrupted),
		errors.Is(err, backend.ErrUnsupportedPlatform):
		return exitBackend
	case errors.Is(err, namespace.ErrInvalidName),
		errors.Is(err, vault.ErrInvalidType):
		return exitInvalidArgs
	default:
		return exitNotFound
	}
}

// printRemediation suggests platform-specific next steps. It never
// prints any attempted value.
func printRemediation(err error) {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		if !globalScope && projectName != "" {
			Info("Not in project scope either; try --global or check the name with 'keyward list'")
		}
	case errors.Is(err, backend.ErrAccessDenied):
		Info("Unlock the keychain/keyring and approve the access prompt, then retry")
	case errors.Is(err, backend.ErrUnavailable):
		Info("The secret store daemon may not be running; start it (or use --backend file) and retry")
	case errors.Is(err, backend.ErrCorrupted):
		Info("Stored data failed its integrity check; restore the credential from its source and store it again")
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.keyward/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "secret store backend (auto|keychain|secretservice|file)")
	rootCmd.PersistentFlags().StringVarP(&projectName, "project", "p", "", "project identifier for scoping")
	rootCmd.PersistentFlags().BoolVarP(&globalScope, "global", "g", false, "use the global scope")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitInvalidArgs)
		}

		configDir := filepath.Join(home, ".keyward")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("KEYWARD")
	viper.AutomaticEnv()

	// Load config file if it exists.
	_ = viper.ReadInConfig()

	logging.Setup(verbose || viper.GetBool("verbose"))
}
