// Package main provides the entry point for worldsave.
//
// worldsave is the command-line tool for inspecting, verifying, watching,
// and archiving WorldSave snapshot files.
package main

import (
	"fmt"
	"os"

	"github.com/arkvale/worldsave-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
