package cli

import (
	"context"
	"fmt"

	"github.com/mjurkovic/dpx/internal/host"
	"github.com/mjurkovic/dpx/internal/proc"
	"github.com/mjurkovic/dpx/internal/proxyres"
	"github.com/mjurkovic/dpx/internal/session"
)

// ProxyCmd launches the debug proxy standalone and prints its listening
// address. The proxy outlives the command; terminate it with `dpx kill`.
type ProxyCmd struct {
	ProxyVersion string `help:"Debug proxy package version" default:""`
	DevToolsURL  string `help:"Browser DevTools endpoint handed to the proxy"`
	Port         int    `help:"Starting port for the debugging-port probe"`
	PackageRoot  string `help:"NuGet package cache root (default: ~/.nuget/packages)"`
	StatePath    string `help:"Registry snapshot path" hidden:""`
}

// Run executes the proxy command.
func (c *ProxyCmd) Run(globals *Globals) error {
	events := newEventSink(globals)
	log := newSessionLogger(globals)
	registry := proc.NewRegistry()

	orch := session.New(
		session.Config{
			ProxyVersion: pick(c.ProxyVersion, globals.Config.Defaults.ProxyVersion),
			DevToolsURL:  pick(c.DevToolsURL, globals.Config.Defaults.DevToolsURL),
			StartPort:    globals.Config.Defaults.StartPort,
		},
		host.NewHeadless(events, log, nil), registry,
		&proxyres.Resolver{Root: pick(c.PackageRoot, globals.Config.Defaults.PackageRoot)},
		events, log, nil,
	)

	info, err := orch.LaunchDebugProxy(context.Background(), c.Port)
	if err != nil {
		return outputErrorCommon(globals, "PROXY_LAUNCH_FAILED", err.Error(),
			"run 'dpx doctor' to check the debug proxy package is installed")
	}

	statePath := c.StatePath
	if statePath == "" {
		if p, perr := defaultRegistryStatePath(); perr == nil {
			statePath = p
		}
	}
	if statePath != "" {
		persistRegistration(statePath, info.Address, info.PID, info.Port)
	}

	// proxy_ready already went to the event sink; text mode gets the bare
	// address on stdout for shell capture.
	if globals.Format != "ndjson" {
		fmt.Fprintln(globals.Stdout, info.Address)
	}
	return nil
}
