// Package main is the entry point for the habitgrid CLI.
package main

import (
	"os"

	"github.com/habitgrid/habitgrid/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
