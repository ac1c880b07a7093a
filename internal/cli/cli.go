package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mjurkovic/dpx/internal/config"
)

// CLI is the top-level command tree.
type CLI struct {
	Format  string `help:"Output format: ndjson or text" enum:"ndjson,text" default:"${config_format}"`
	Level   string `help:"Log level: debug, info, warn, error" default:"${config_level}"`
	Quiet   bool   `short:"q" help:"Suppress informational output"`
	Verbose bool   `short:"v" help:"Verbose debug logging"`

	Launch LaunchCmd `cmd:"" help:"Run a full debugging session: app, proxy, and browser attach"`
	Proxy  ProxyCmd  `cmd:"" help:"Launch the debug proxy and print its listening address"`
	Kill   KillCmd   `cmd:"" help:"Terminate the debug proxy registered under an address"`
	Probe  ProbeCmd  `cmd:"" help:"Find the first available TCP port at or above a starting port"`
	Ps     PsCmd     `cmd:"" help:"List registered debug proxies"`
	Doctor DoctorCmd `cmd:"" help:"Check the environment for debugging prerequisites"`
	Config ConfigCmd `cmd:"" help:"Inspect and generate configuration"`
}

// Globals carries cross-command state into every Run method.
type Globals struct {
	Format  string
	Level   string
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config
}

// NewGlobalsWithConfig builds Globals from parsed flags with config fallbacks.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	g := &Globals{
		Format:  c.Format,
		Level:   c.Level,
		Quiet:   c.Quiet || cfg.Quiet,
		Verbose: c.Verbose || cfg.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}
	if g.Format == "" {
		g.Format = cfg.Format
	}
	if g.Level == "" {
		g.Level = cfg.Level
	}
	return g
}

// Debug prints a debug line to stderr when verbose is enabled.
func (g *Globals) Debug(format string, args ...interface{}) {
	if g.Verbose {
		fmt.Fprintf(g.Stderr, "[debug] "+format+"\n", args...)
	}
}
