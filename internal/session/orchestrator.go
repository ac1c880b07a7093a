// Package session drives one end-to-end debugging attempt: launch the
// application, probe a debugging port, launch the debug proxy, discover its
// listening address, hand it to the browser debug session, and tear the
// proxy down when either debug session ends.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/mjurkovic/dpx/internal/domain"
	"github.com/mjurkovic/dpx/internal/extract"
	"github.com/mjurkovic/dpx/internal/host"
	"github.com/mjurkovic/dpx/internal/netprobe"
	"github.com/mjurkovic/dpx/internal/proc"
	"github.com/mjurkovic/dpx/internal/proxyres"
)

// Config carries the environment-level defaults a session runs with.
type Config struct {
	ProxyVersion string // debug proxy package version
	DevToolsURL  string // browser DevTools endpoint handed to the proxy
	StartPort    int    // first port the prober tries
}

// ProxyInfo describes a launched, address-registered debug proxy.
type ProxyInfo struct {
	Address    string
	InspectURI string
	PID        int
	Port       int
}

// Orchestrator runs the session state machine. Each orchestrator owns its
// registry instance, so terminations are scoped to the addresses this
// session (or its siblings sharing the registry on purpose) produced.
type Orchestrator struct {
	cfg      Config
	host     host.DebugHost
	registry *proc.Registry
	launcher *proc.Launcher
	resolver *proxyres.Resolver
	events   host.EventSink
	log      *zap.SugaredLogger
	clk      clock.Clock

	mu           sync.Mutex
	state        State
	proxyAddress string
	proxyPort    int
	appName      string
	browserName  string
	activeSince  time.Time
	unsubscribe  func()

	terminateOnce sync.Once
	done          chan struct{}
}

// New creates an Orchestrator. A nil clock means real time.
func New(cfg Config, h host.DebugHost, reg *proc.Registry, res *proxyres.Resolver, events host.EventSink, log *zap.SugaredLogger, clk clock.Clock) *Orchestrator {
	if clk == nil {
		clk = clock.New()
	}
	if cfg.ProxyVersion == "" {
		cfg.ProxyVersion = proxyres.DefaultVersion
	}
	if cfg.DevToolsURL == "" {
		cfg.DevToolsURL = "http://localhost:9222"
	}
	if cfg.StartPort == 0 {
		cfg.StartPort = 9300
	}
	return &Orchestrator{
		cfg:      cfg,
		host:     h,
		registry: reg,
		launcher: &proc.Launcher{},
		resolver: res,
		events:   events,
		log:      log,
		clk:      clk,
		state:    StateIdle,
		done:     make(chan struct{}),
	}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// ProxyAddress returns the extracted proxy address, or "" before ProxyReady.
func (o *Orchestrator) ProxyAddress() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.proxyAddress
}

// ProxyPort returns the probed debugging port handed to the proxy, or 0
// before ProxyReady.
func (o *Orchestrator) ProxyPort() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.proxyPort
}

// Done closes when the session reaches its final state.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

// Run drives the session to SessionActive and returns, leaving the
// termination listener armed; callers wait on Done. A "launch" request
// starts the application first, an "attach" request goes straight to the
// proxy and browser flow. App launch failure aborts the whole session;
// browser launch failure is reported but leaves the proxy running.
func (o *Orchestrator) Run(ctx context.Context, options domain.Descriptor) error {
	if o.State() != StateIdle {
		return fmt.Errorf("orchestrator already ran")
	}

	request := options.String("request")
	if request == "" {
		request = "launch"
	}

	if request == "launch" {
		o.setState(StateAppLaunching)
		appDesc := domain.BuildAppDescriptor(options)
		o.appName = appDesc.String("name")
		if err := o.host.StartDebugSession(ctx, appDesc); err != nil {
			o.log.Errorw("application launch failed", "err", err)
			o.events.WriteError("APP_LAUNCH_FAILED", err.Error()) //nolint:errcheck
			o.finish()
			return fmt.Errorf("application launch failed: %w", err)
		}
		o.setState(StateAppRunning)
	}

	proxyInfo, err := o.launchProxy(ctx, options.Int("port"))
	if err != nil {
		o.events.WriteError("PROXY_LAUNCH_FAILED", err.Error()) //nolint:errcheck
		o.finish()
		return err
	}

	o.setState(StateBrowserLaunching)
	browserDesc := domain.BuildBrowserDescriptor(options, proxyInfo.InspectURI)
	o.browserName = browserDesc.String("name")
	if err := o.host.StartDebugSession(ctx, browserDesc); err != nil {
		// Non-fatal: the proxy stays up, the user can retry attaching.
		o.log.Warnw("browser launch failed", "err", err)
		o.host.ShowError("Unable to start the browser debugging session: " + err.Error())
	}

	o.mu.Lock()
	o.activeSince = o.clk.Now()
	o.mu.Unlock()
	o.setState(StateSessionActive)
	o.events.Write(domain.NewSessionStart(o.appName, o.browserName, proxyInfo.Address, o.clk.Now())) //nolint:errcheck

	unsub := o.host.OnDidTerminateSession(func(name string) {
		if !o.ownsSession(name) {
			return
		}
		o.Terminate(name)
	})

	// The callback can fire from another goroutine before the subscription
	// handle lands in the struct. Store it under the lock, and if termination
	// already won that window, dispose the listener here instead.
	o.mu.Lock()
	o.unsubscribe = unsub
	terminated := o.state == StateTerminating || o.state == StateDone
	o.mu.Unlock()
	if terminated {
		unsub()
	}
	return nil
}

// ownsSession reports whether name identifies one of this session's debug
// sessions. Empty recorded names never match: an attach flow has no
// application session to match against.
func (o *Orchestrator) ownsSession(name string) bool {
	return (o.appName != "" && name == o.appName) ||
		(o.browserName != "" && name == o.browserName)
}

// LaunchDebugProxy probes a free port, launches the proxy against the
// DevTools endpoint, extracts its listening address from stdout, and
// registers the pid under the address. It is also the standalone inbound
// operation behind `dpx proxy`.
func (o *Orchestrator) LaunchDebugProxy(ctx context.Context, startPort int) (*ProxyInfo, error) {
	return o.launchProxy(ctx, startPort)
}

func (o *Orchestrator) launchProxy(ctx context.Context, startPort int) (*ProxyInfo, error) {
	o.setState(StateProxyLaunching)

	if startPort == 0 {
		startPort = o.cfg.StartPort
	}
	port, err := netprobe.FindAvailablePort(startPort)
	if err != nil {
		return nil, fmt.Errorf("port probe failed: %w", err)
	}
	o.log.Debugw("debugging port probed", "port", port)

	spec, err := o.resolver.LaunchSpec(o.cfg.ProxyVersion, o.cfg.DevToolsURL, port)
	if err != nil {
		return nil, err
	}
	handle, err := o.launcher.Launch(spec)
	if err != nil {
		return nil, err
	}
	go io.Copy(io.Discard, handle.Stderr()) //nolint:errcheck

	o.setState(StateProxyAddressPending)
	addrCh := extract.Watch(handle.Stdout())

	var address string
	select {
	case addr, ok := <-addrCh:
		if !ok {
			return nil, fmt.Errorf("debug proxy exited before announcing a listening address")
		}
		address = addr
	case <-ctx.Done():
		handle.Kill() //nolint:errcheck
		return nil, ctx.Err()
	}

	// Registration precedes ProxyReady so a termination event can never
	// observe an unregistered address.
	o.registry.Register(address, handle.PID())
	o.mu.Lock()
	o.proxyAddress = address
	o.proxyPort = port
	o.mu.Unlock()
	o.setState(StateProxyReady)

	inspect, err := domain.RewriteToWebSocket(address)
	if err != nil {
		return nil, fmt.Errorf("extracted address %q is not a valid URL: %w", address, err)
	}

	info := &ProxyInfo{Address: address, InspectURI: inspect, PID: handle.PID(), Port: port}
	o.events.Write(domain.NewProxyReady(address, inspect, info.PID, port, o.clk.Now())) //nolint:errcheck
	o.log.Infow("debug proxy ready", "address", address, "pid", info.PID)
	return info, nil
}

// Terminate tears the proxy down and finalizes the session. Only the first
// call acts; both debug sessions ending near-simultaneously still produce
// exactly one termination.
func (o *Orchestrator) Terminate(trigger string) {
	o.terminateOnce.Do(func() {
		o.setState(StateTerminating)

		o.mu.Lock()
		unsub := o.unsubscribe
		address := o.proxyAddress
		since := o.activeSince
		o.mu.Unlock()
		if unsub != nil {
			unsub()
		}

		if address != "" {
			if pid, killed := o.registry.Terminate(address); killed {
				o.log.Infow("debug proxy terminated", "address", address, "pid", pid, "trigger", trigger)
			}
		}

		var duration time.Duration
		if !since.IsZero() {
			duration = o.clk.Now().Sub(since)
		}
		o.events.Write(domain.NewSessionEnd(trigger, address, duration)) //nolint:errcheck
		o.finish()
	})
}

// KillDebugProxy terminates the proxy registered under address, reporting
// whether a signal was actually sent. Unknown addresses are a no-op.
func (o *Orchestrator) KillDebugProxy(address string) (int, bool) {
	return o.registry.Terminate(address)
}

func (o *Orchestrator) setState(to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()
	if from == to {
		return
	}
	o.log.Debugw("state change", "from", from.String(), "to", to.String())
	o.events.Write(domain.NewStateChange(from.String(), to.String(), o.clk.Now())) //nolint:errcheck
}

func (o *Orchestrator) finish() {
	o.setState(StateDone)
	select {
	case <-o.done:
	default:
		close(o.done)
	}
}
