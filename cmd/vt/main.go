// Package main is the entry point for the vt CLI tool.
package main

import (
	"os"

	"github.com/pomdtr/vt/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
