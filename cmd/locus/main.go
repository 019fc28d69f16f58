// Package main provides the entry point for the locus CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/locuscode/locus/cmd/locus/commands"
)

func main() {
	// A missing .env is not an error; provider credentials may already be
	// in the real environment.
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(commands.ExitCodeFor(err))
	}
}
