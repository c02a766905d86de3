// Package main is the entry point of the harmonize CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/harmonize/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
