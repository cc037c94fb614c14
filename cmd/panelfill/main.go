package main

import (
	"os"

	"github.com/aouyang1/go-panelfill/cmd/panelfill/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
