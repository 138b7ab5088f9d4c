package main

import (
	"os"

	"github.com/custodia-labs/ghvault-cli/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
