package main

import (
	"os"

	"github.com/opsdeck/opsdeck/cmd/opsdeck/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
