// Package main is the cadac command-line entry point.
package main

import (
	"os"

	"github.com/cadac-labs/cadac/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
