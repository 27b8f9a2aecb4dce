package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service != "keyward" {
		t.Errorf("Service = %q, want %q", cfg.Service, "keyward")
	}
	if cfg.Backend != "auto" {
		t.Errorf("Backend = %q, want %q", cfg.Backend, "auto")
	}
	if !cfg.Audit {
		t.Error("Audit = false, want true by default")
	}
	if cfg.Scan.EntropyThreshold != 4.0 {
		t.Errorf("Scan.EntropyThreshold = %v, want 4.0", cfg.Scan.EntropyThreshold)
	}
	if cfg.Scan.MinRunLength != 20 {
		t.Errorf("Scan.MinRunLength = %d, want 20", cfg.Scan.MinRunLength)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"unknown backend", "backend", "vaultron"},
		{"empty service", "service", ""},
		{"zero entropy threshold", "scan.entropy_threshold", 0},
		{"negative run length", "scan.min_run_length", -1},
		{"zero max input", "scan.max_input_bytes", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			viper.Set(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%v expected error, got nil", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_Exceptions(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("exceptions", []string{"testdata/**", "commit"})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Exceptions) != 2 || cfg.Exceptions[0] != "testdata/**" {
		t.Errorf("Exceptions = %v, want the configured rules", cfg.Exceptions)
	}
}
