// Package main provides the claim assistant entry point.
package main

import (
	"fmt"
	"os"

	"github.com/drfirst/dental-claims/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
