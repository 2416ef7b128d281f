// Package main is the entry point for salesdw.
package main

import (
	"fmt"
	"os"

	"salesdw/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
