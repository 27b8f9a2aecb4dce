// Package config provides application configuration management. All
// values come from viper (flags, KEYWARD_* environment variables, and
// an optional ~/.keyward/config.yaml); the core packages receive the
// resolved values as parameters and never read configuration
// themselves.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/keyward/keyward/internal/backend"
	"github.com/keyward/keyward/internal/scanner"
)

// Config holds all application configuration.
type Config struct {
	// Service is the namespace tag under which credentials are stored.
	Service string

	// Backend selects the platform adapter variant.
	Backend string

	// Dir is the directory for the encrypted-file backend and the
	// audit database.
	Dir string

	// Passphrase keys the encrypted-file backend. Usually supplied via
	// KEYWARD_PASSPHRASE.
	Passphrase string

	// Audit enables the operation log.
	Audit bool

	// Scan holds the leak-scanner tuning.
	Scan ScanConfig

	// Exceptions are the leak-gate exception rules: path globs or
	// context tags.
	Exceptions []string
}

// ScanConfig tunes the scanner and the intercept gate.
type ScanConfig struct {
	EntropyThreshold float64
	MinRunLength     int
	MaxInputBytes    int
}

func setDefaults() {
	viper.SetDefault("service", "keyward")
	viper.SetDefault("backend", backend.BackendAuto)
	viper.SetDefault("audit", true)
	viper.SetDefault("scan.entropy_threshold", scanner.DefaultEntropyThreshold)
	viper.SetDefault("scan.min_run_length", scanner.DefaultMinRunLength)
	viper.SetDefault("scan.max_input_bytes", 1<<20)
}

// Load reads the configuration from viper and validates it.
func Load() (*Config, error) {
	setDefaults()

	cfg := &Config{
		Service:    viper.GetString("service"),
		Backend:    viper.GetString("backend"),
		Dir:        viper.GetString("dir"),
		Passphrase: viper.GetString("passphrase"),
		Audit:      viper.GetBool("audit"),
		Scan: ScanConfig{
			EntropyThreshold: viper.GetFloat64("scan.entropy_threshold"),
			MinRunLength:     viper.GetInt("scan.min_run_length"),
			MaxInputBytes:    viper.GetInt("scan.max_input_bytes"),
		},
		Exceptions: viper.GetStringSlice("exceptions"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case "", backend.BackendAuto, backend.BackendKeychain, backend.BackendSecretService, backend.BackendFile:
	default:
		return fmt.Errorf("invalid backend %q (valid: auto, keychain, secretservice, file)", c.Backend)
	}
	if c.Service == "" {
		return fmt.Errorf("service tag must not be empty")
	}
	if c.Scan.EntropyThreshold <= 0 {
		return fmt.Errorf("scan.entropy_threshold must be positive")
	}
	if c.Scan.MinRunLength <= 0 {
		return fmt.Errorf("scan.min_run_length must be positive")
	}
	if c.Scan.MaxInputBytes <= 0 {
		return fmt.Errorf("scan.max_input_bytes must be positive")
	}
	return nil
}
