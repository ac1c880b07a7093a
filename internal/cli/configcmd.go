package cli

import (
	"encoding/json"
	"fmt"

	"github.com/mjurkovic/dpx/internal/config"
)

// ConfigCmd groups configuration inspection subcommands.
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"1" help:"Show the effective configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show which configuration file is in use"`
	Generate ConfigGenerateCmd `cmd:"" help:"Print a sample configuration file"`
}

// ConfigShowCmd prints the effective configuration after files, environment,
// and defaults are merged.
type ConfigShowCmd struct{}

// Run executes the config show command.
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if globals.Format == "ndjson" {
		out := map[string]interface{}{
			"type":          "config",
			"schemaVersion": 1,
			"format":        cfg.Format,
			"level":         cfg.Level,
			"quiet":         cfg.Quiet,
			"verbose":       cfg.Verbose,
			"defaults": map[string]interface{}{
				"proxy_version": cfg.Defaults.ProxyVersion,
				"devtools_url":  cfg.Defaults.DevToolsURL,
				"start_port":    cfg.Defaults.StartPort,
				"package_root":  cfg.Defaults.PackageRoot,
				"browser":       cfg.Defaults.Browser,
				"timeout_ms":    cfg.Defaults.TimeoutMs,
				"cwd":           cfg.Defaults.Cwd,
			},
		}
		enc := json.NewEncoder(globals.Stdout)
		return enc.Encode(out)
	}

	fmt.Fprintln(globals.Stdout, "Current Configuration:")
	fmt.Fprintf(globals.Stdout, "  format: %s\n", cfg.Format)
	fmt.Fprintf(globals.Stdout, "  level: %s\n", cfg.Level)
	fmt.Fprintf(globals.Stdout, "  quiet: %t\n", cfg.Quiet)
	fmt.Fprintf(globals.Stdout, "  verbose: %t\n", cfg.Verbose)
	fmt.Fprintln(globals.Stdout, "  Defaults:")
	fmt.Fprintf(globals.Stdout, "    proxy_version: %s\n", cfg.Defaults.ProxyVersion)
	fmt.Fprintf(globals.Stdout, "    devtools_url: %s\n", cfg.Defaults.DevToolsURL)
	fmt.Fprintf(globals.Stdout, "    start_port: %d\n", cfg.Defaults.StartPort)
	if cfg.Defaults.PackageRoot != "" {
		fmt.Fprintf(globals.Stdout, "    package_root: %s\n", cfg.Defaults.PackageRoot)
	}
	fmt.Fprintf(globals.Stdout, "    browser: %s\n", cfg.Defaults.Browser)
	fmt.Fprintf(globals.Stdout, "    timeout_ms: %d\n", cfg.Defaults.TimeoutMs)
	if cfg.Defaults.Cwd != "" {
		fmt.Fprintf(globals.Stdout, "    cwd: %s\n", cfg.Defaults.Cwd)
	}
	return nil
}

// ConfigPathCmd reports which configuration file the process loaded.
type ConfigPathCmd struct{}

// Run executes the config path command.
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := config.ConfigFile()

	if globals.Format == "ndjson" {
		out := map[string]interface{}{
			"type":          "config_path",
			"schemaVersion": 1,
			"path":          path,
			"found":         path != "",
		}
		enc := json.NewEncoder(globals.Stdout)
		return enc.Encode(out)
	}

	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found (using defaults)")
		return nil
	}
	fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	return nil
}

// ConfigGenerateCmd prints a commented sample configuration.
type ConfigGenerateCmd struct{}

// Run executes the config generate command.
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	sample := `# dpx configuration file
# Place at ~/.dpx.yaml or ./dpx.yaml

# Output format: ndjson or text
format: ndjson

# Log level: debug, info, warn, error
level: info

# Suppress informational output
quiet: false

# Verbose debug logging
verbose: false

defaults:
  # Debug proxy package version resolved from the NuGet cache
  proxy_version: "5.0.0"

  # Browser DevTools endpoint the proxy connects to
  devtools_url: http://localhost:9222

  # First port probed when picking the proxy's listening port
  start_port: 9300

  # Browser session type: chrome or edge
  browser: chrome

  # Browser attach timeout in milliseconds
  timeout_ms: 30000
`
	fmt.Fprint(globals.Stdout, sample)
	return nil
}
