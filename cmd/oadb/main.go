// Package main provides the oadb CLI application.
// oadb manages the lifecycle of the open-access tracking database.
package main

import (
	"os"
)

var (
	// Version is set by build flags
	Version = "dev"
)

func main() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
