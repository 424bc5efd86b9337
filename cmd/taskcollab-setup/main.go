package main

import (
	"os"

	"github.com/AI2HU/taskcollab-setup/internal/cli"
)

// set with -ldflags "-X main.version=..."
var version string

func main() {
	cli.SetVersion(version)
	os.Exit(cli.ExitCode(cli.Execute()))
}
