package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/mjurkovic/dpx/internal/cli"
	"github.com/mjurkovic/dpx/internal/config"
)

const quickStart = `dpx - Blazor WebAssembly debug session orchestrator

Quick start:
  dpx launch --cwd ./src/MyApp            Run app, debug proxy, and browser attach
  dpx proxy                               Launch just the debug proxy
  dpx kill ws://localhost:9300            Terminate a registered proxy
  dpx doctor                              Check debugging prerequisites

For help:
  dpx --help                              All commands and flags
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	// Interactive terminals read text, everything else gets NDJSON. Only
	// applies when format was not pinned by a config file or environment.
	format := cfg.Format
	if format == "ndjson" && os.Getenv("DPX_FORMAT") == "" && config.ConfigFile() == "" {
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			format = "text"
		}
	}

	var c cli.CLI

	// Apply config defaults before parsing
	// These will be overridden by CLI flags if specified
	vars := kong.Vars{
		"config_format": format,
		"config_level":  cfg.Level,
	}

	ctx := kong.Parse(&c,
		kong.Name("dpx"),
		kong.Description("dpx: launch and manage Blazor WebAssembly debugging sessions\n\nEmits NDJSON session events for tooling; use --format text for humans"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	// Create globals with config fallbacks
	globals := cli.NewGlobalsWithConfig(&c, cfg)
	err = ctx.Run(globals)
	if err != nil {
		os.Exit(1)
	}
}
