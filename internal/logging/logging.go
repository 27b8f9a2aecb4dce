// Package logging provides slog setup and component-scoped loggers.
// Nothing in this tool ever logs a credential value; loggers receive
// names, scopes and rule ids only.
package logging

import (
	"log/slog"
	"os"
)

// Setup installs the default logger. Verbose raises the level to Debug.
// Output goes to stderr so stdout stays pipe-safe for `get`.
func Setup(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// Component returns a logger tagged with the component name.
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}
