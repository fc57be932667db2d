// Command synindex keeps a semantic index of Synapse integration
// configuration and answers natural-language queries over it.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/synindex/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
