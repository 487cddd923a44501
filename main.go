package main

import (
	"os"

	"github.com/tphakala/tonebarrier/cmd"
	"github.com/tphakala/tonebarrier/internal/conf"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	settings := &conf.Settings{
		Version:   version,
		BuildDate: buildDate,
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
