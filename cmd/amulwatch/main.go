// Package main is the entry point for amulwatch.
package main

import (
	"os"

	"github.com/rkhanna/amulwatch/cmd/amulwatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
