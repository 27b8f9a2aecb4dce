// Package main is the entry point for the keyward CLI.
package main

import (
	"os"

	"github.com/keyward/keyward/cmd/keyward/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
