// Package main provides the entry point for credvault.
//
// credvault is the command-line credential vault and session agent for
// the identity backend.
package main

import (
	"fmt"
	"os"

	"github.com/veldra/credvault-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
