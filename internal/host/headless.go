package host

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/mjurkovic/dpx/internal/domain"
	"github.com/mjurkovic/dpx/internal/proc"
)

// EventSink receives lifecycle events. output.NDJSONWriter satisfies it.
type EventSink interface {
	Write(event any) error
	WriteError(code, message string, hint ...string) error
}

// Headless is a DebugHost without an IDE: application sessions run as real
// child processes whose exit produces the termination notification, and
// browser sessions are verified by dialing the proxy's websocket endpoint.
// Actually attaching a browser is left to outer tooling consuming the events.
type Headless struct {
	launcher *proc.Launcher
	events   EventSink
	log      *zap.SugaredLogger
	clk      clock.Clock

	mu     sync.Mutex
	nextID int
	subs   map[int]func(name string)
}

// NewHeadless creates a headless host.
func NewHeadless(events EventSink, log *zap.SugaredLogger, clk clock.Clock) *Headless {
	if clk == nil {
		clk = clock.New()
	}
	return &Headless{
		launcher: &proc.Launcher{},
		events:   events,
		log:      log,
		clk:      clk,
		subs:     make(map[int]func(string)),
	}
}

// StartDebugSession dispatches on the descriptor's adapter type: "coreclr"
// descriptors launch an application process, browser descriptors verify the
// proxy's websocket endpoint is attachable.
func (h *Headless) StartDebugSession(ctx context.Context, d domain.Descriptor) error {
	switch d.String("type") {
	case "coreclr":
		return h.startApp(d)
	case "chrome", "edge":
		return h.startBrowser(ctx, d)
	default:
		return fmt.Errorf("unsupported debug session type %q", d.String("type"))
	}
}

func (h *Headless) startApp(d domain.Descriptor) error {
	name := d.String("name")
	spec := proc.LaunchSpec{
		Program: d.String("program"),
		Args:    descriptorArgs(d),
		Dir:     resolveWorkspaceFolder(d.String("cwd")),
		Env:     d.StringMap("env"),
	}

	handle, err := h.launcher.Launch(spec)
	if err != nil {
		return err
	}
	h.log.Debugw("application started", "session", name, "program", spec.Program, "pid", handle.PID())

	// The app's output is not scraped for anything; drain the pipes so the
	// process never blocks on a full buffer.
	go io.Copy(io.Discard, handle.Stdout()) //nolint:errcheck
	go io.Copy(io.Discard, handle.Stderr()) //nolint:errcheck

	go func() {
		exitErr := <-handle.Done()
		h.log.Debugw("application exited", "session", name, "err", exitErr)
		h.NotifyTerminated(name)
	}()
	return nil
}

func (h *Headless) startBrowser(ctx context.Context, d domain.Descriptor) error {
	inspect := d.String("inspectUri")
	if inspect == "" {
		return fmt.Errorf("browser descriptor has no inspectUri")
	}
	timeout := time.Duration(d.Int("timeout")) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if err := h.awaitEndpoint(ctx, inspect, timeout); err != nil {
		return err
	}
	h.log.Debugw("browser debug target reachable", "inspect_uri", inspect)
	return h.events.Write(browserAttach{
		Type:          "browser_attach",
		SchemaVersion: domain.SchemaVersion,
		InspectURI:    inspect,
		URL:           d.String("url"),
		AdapterType:   d.String("type"),
	})
}

// awaitEndpoint dials the websocket endpoint until it accepts a connection
// or the attach timeout passes. The timeout value is the one configured on
// the launch request; enforcement here stands in for the host debugger's.
func (h *Headless) awaitEndpoint(ctx context.Context, inspect string, timeout time.Duration) error {
	deadline := h.clk.Now().Add(timeout)
	var lastErr error
	for {
		dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		conn, _, err := websocket.Dial(dialCtx, inspect, nil)
		cancel()
		if err == nil {
			conn.Close(websocket.StatusNormalClosure, "attach probe")
			return nil
		}
		lastErr = err
		if h.clk.Now().After(deadline) {
			return fmt.Errorf("browser debug target %s not reachable within %s: %w", inspect, timeout, lastErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.clk.After(250 * time.Millisecond):
		}
	}
}

// OnDidTerminateSession subscribes fn to termination notifications.
func (h *Headless) OnDidTerminateSession(fn func(name string)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// NotifyTerminated delivers a termination notification for the named session
// to every current subscriber. Subscribers are invoked outside the lock so a
// callback may unsubscribe itself.
func (h *Headless) NotifyTerminated(name string) {
	h.mu.Lock()
	fns := make([]func(string), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(name)
	}
}

// ShowError surfaces a user-facing error as an NDJSON error event, folding
// actions into the hint.
func (h *Headless) ShowError(message string, actions ...Action) {
	hints := make([]string, 0, len(actions))
	for _, a := range actions {
		if a.URL != "" {
			hints = append(hints, a.Title+": "+a.URL)
		} else {
			hints = append(hints, a.Title)
		}
	}
	h.events.WriteError("SESSION_ERROR", message, strings.Join(hints, "; ")) //nolint:errcheck
}

type browserAttach struct {
	Type          string `json:"type"` // "browser_attach"
	SchemaVersion int    `json:"schemaVersion"`
	InspectURI    string `json:"inspect_uri"`
	URL           string `json:"url,omitempty"`
	AdapterType   string `json:"adapter_type"`
}

// descriptorArgs normalizes the descriptor's args value; JSON decoding
// delivers []any where our builders produce []string.
func descriptorArgs(d domain.Descriptor) []string {
	switch v := d["args"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, a := range v {
			if s, ok := a.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// resolveWorkspaceFolder substitutes the ${workspaceFolder} token with the
// current working directory. Other ${...} tokens pass through untouched.
func resolveWorkspaceFolder(cwd string) string {
	if !strings.Contains(cwd, "${workspaceFolder}") {
		return cwd
	}
	wd, err := os.Getwd()
	if err != nil {
		return cwd
	}
	return strings.ReplaceAll(cwd, "${workspaceFolder}", wd)
}
