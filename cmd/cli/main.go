// Package main is the entry point for the cloudkeeper CLI.
package main

import (
	"os"

	"cloudkeeper/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
