package main

import (
	"os"

	"github.com/wonny/aurum/cmd/aurum/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
