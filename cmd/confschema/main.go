package main

import (
	"context"
	"os"

	"github.com/Azhovan/confschema/internal/cli"
)

// Build-time variables (set via ldflags).
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := cli.NewRootCmd(version, commit, buildDate).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
