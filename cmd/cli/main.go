// Package main is the entry point for sales-enrich CLI.
package main

import (
	"os"

	"sales-enrich/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
