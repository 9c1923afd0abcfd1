// Package main is the entry point for the sweeper CLI.
package main

import (
	"os"

	"github.com/JonMunkholm/sweeper/cmd/sweeper/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
