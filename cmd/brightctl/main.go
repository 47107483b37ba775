// Package main is the entry point for the brightctl CLI tool.
package main

import (
	"os"

	"github.com/good-yellow-bee/brightminds/cmd/brightctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
