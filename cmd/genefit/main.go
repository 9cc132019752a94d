// GeneFit client - upload DNA reports and follow their analysis from the terminal.
package main

import (
	"os"

	"github.com/genefit/genefit-link/internal/cli"
	"github.com/genefit/genefit-link/internal/version"
)

// Version information, overridden with -ldflags at release time.
var (
	Version   = "v0.3.0"
	BuildTime = "dev"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
