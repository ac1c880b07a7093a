package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mjurkovic/dpx/internal/domain"
	"github.com/mjurkovic/dpx/internal/host"
	"github.com/mjurkovic/dpx/internal/proc"
	"github.com/mjurkovic/dpx/internal/proxyres"
	"github.com/mjurkovic/dpx/internal/session"
)

// LaunchCmd runs a full debugging session end to end.
type LaunchCmd struct {
	Attach       bool              `help:"Attach to a running application instead of launching it"`
	Hosted       bool              `help:"Skip 'dotnet run' and launch the program path directly"`
	Program      string            `help:"Program path for --hosted launches"`
	Cwd          string            `help:"Working directory for the application (default: current directory)"`
	EnvFile      string            `help:"Dotenv file with environment overrides for the application"`
	URL          string            `help:"Application URL opened by the browser debug session"`
	WebRoot      string            `help:"Web root for source mapping"`
	Browser      string            `help:"Browser debug adapter: chrome or edge" enum:",chrome,edge"`
	Timeout      int               `help:"Browser attach timeout in milliseconds"`
	Port         int               `help:"Starting port for the debugging-port probe"`
	ProxyVersion string            `help:"Debug proxy package version"`
	DevToolsURL  string            `help:"Browser DevTools endpoint handed to the proxy"`
	NoDebug      bool              `help:"Run the application without attaching a debugger"`
	Trace        bool              `help:"Enable adapter tracing"`
	Extra        map[string]string `help:"Extra descriptor keys passed through to the debug adapter"`
}

// Run executes the launch command.
func (c *LaunchCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	options, err := c.buildOptions(globals)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_OPTIONS", err.Error())
	}

	events := newEventSink(globals)
	log := newSessionLogger(globals)
	headless := host.NewHeadless(events, log, nil)
	registry := proc.NewRegistry()

	orch := session.New(
		session.Config{
			ProxyVersion: pick(c.ProxyVersion, globals.Config.Defaults.ProxyVersion),
			DevToolsURL:  pick(c.DevToolsURL, globals.Config.Defaults.DevToolsURL),
			StartPort:    globals.Config.Defaults.StartPort,
		},
		headless, registry,
		&proxyres.Resolver{Root: globals.Config.Defaults.PackageRoot},
		events, log, nil,
	)

	// Ctrl+C ends the session the same way a debug-session termination does.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			orch.Terminate("signal")
		case <-orch.Done():
		}
	}()

	if err := orch.Run(ctx, options); err != nil {
		// the orchestrator already emitted the failure on the event sink
		return err
	}

	address := orch.ProxyAddress()
	globals.Debug("session active, proxy at %s", address)
	if statePath, perr := defaultRegistryStatePath(); perr == nil {
		if pid, ok := registry.Lookup(address); ok {
			persistRegistration(statePath, address, pid, orch.ProxyPort())
		}
	}

	<-orch.Done()

	if statePath, perr := defaultRegistryStatePath(); perr == nil {
		unpersistRegistration(statePath, address)
	}
	return nil
}

// buildOptions folds flags, config defaults, and the env file into the
// launch request descriptor.
func (c *LaunchCmd) buildOptions(globals *Globals) (domain.Descriptor, error) {
	options := domain.Descriptor{}
	if c.Attach {
		options["request"] = "attach"
	} else {
		options["request"] = "launch"
	}
	if c.Hosted {
		options["hosted"] = true
		if c.Program == "" {
			return nil, fmt.Errorf("--hosted requires --program")
		}
		options["program"] = c.Program
	}
	if cwd := pick(c.Cwd, globals.Config.Defaults.Cwd); cwd != "" {
		options["cwd"] = cwd
	}
	if c.EnvFile != "" {
		env, err := godotenv.Read(c.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file: %w", err)
		}
		options["env"] = env
	}
	if c.URL != "" {
		options["url"] = c.URL
	}
	if c.WebRoot != "" {
		options["webRoot"] = c.WebRoot
	}
	if browser := pick(c.Browser, globals.Config.Defaults.Browser); browser != "" {
		options["browser"] = browser
	}
	if c.Timeout > 0 {
		options["timeout"] = c.Timeout
	} else if globals.Config.Defaults.TimeoutMs > 0 {
		options["timeout"] = globals.Config.Defaults.TimeoutMs
	}
	if c.Port > 0 {
		options["port"] = c.Port
	}
	if c.NoDebug {
		options["noDebug"] = true
	}
	if c.Trace {
		options["trace"] = true
	}
	for k, v := range c.Extra {
		options[k] = v
	}
	return options, nil
}

// newEventSink picks the emitter matching the requested format.
func newEventSink(globals *Globals) host.EventSink {
	if globals.Format == "text" {
		return newTextSink(globals)
	}
	return newNDJSONSink(globals)
}

func pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
