package main

import (
	"os"

	"github.com/custodia-labs/issuearc-cli/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
