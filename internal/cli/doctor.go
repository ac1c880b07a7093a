package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/coder/websocket"
	"github.com/samber/lo"

	"github.com/mjurkovic/dpx/internal/proxyres"
)

// DoctorCmd checks the environment for everything a debugging session needs:
// the dotnet host, the debug proxy package, and a reachable DevTools endpoint.
type DoctorCmd struct {
	ProxyVersion string `help:"Debug proxy package version to locate"`
	DevToolsURL  string `help:"Browser DevTools endpoint to probe"`
	PackageRoot  string `help:"NuGet package cache root" hidden:""`
}

type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

type doctorReport struct {
	Type          string        `json:"type"` // "doctor_report"
	SchemaVersion int           `json:"schemaVersion"`
	OK            bool          `json:"ok"`
	Checks        []doctorCheck `json:"checks"`
}

var (
	doctorOKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	doctorFailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Run executes the doctor command. Exits non-zero when any check fails.
func (c *DoctorCmd) Run(globals *Globals) error {
	version := pick(c.ProxyVersion, globals.Config.Defaults.ProxyVersion)
	devTools := pick(c.DevToolsURL, globals.Config.Defaults.DevToolsURL)
	root := pick(c.PackageRoot, globals.Config.Defaults.PackageRoot)

	checks := []doctorCheck{
		checkDotnet(),
		checkProxyPackage(root, version),
		checkDevTools(devTools),
	}
	ok := lo.EveryBy(checks, func(ch doctorCheck) bool { return ch.OK })

	if globals.Format == "ndjson" {
		if err := newNDJSONSink(globals).Write(&doctorReport{Type: "doctor_report", SchemaVersion: 1, OK: ok, Checks: checks}); err != nil {
			return err
		}
	} else {
		for _, ch := range checks {
			badge := doctorOKStyle.Render("OK  ")
			if !ch.OK {
				badge = doctorFailStyle.Render("FAIL")
			}
			fmt.Fprintf(globals.Stdout, "%s %-18s %s\n", badge, ch.Name, ch.Detail)
		}
	}

	if !ok {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}

func checkDotnet() doctorCheck {
	path, err := exec.LookPath("dotnet")
	if err != nil {
		return doctorCheck{Name: "dotnet host", Detail: "dotnet not found on PATH"}
	}
	return doctorCheck{Name: "dotnet host", OK: true, Detail: path}
}

func checkProxyPackage(root, version string) doctorCheck {
	r := &proxyres.Resolver{Root: root}
	dll, err := r.DLLPath(version)
	if err != nil {
		return doctorCheck{Name: "debug proxy", Detail: err.Error()}
	}
	return doctorCheck{Name: "debug proxy", OK: true, Detail: dll}
}

// checkDevTools probes the browser's DevTools endpoint twice: the version
// document over HTTP, then a WebSocket handshake against the reported
// debugger target.
func checkDevTools(devTools string) doctorCheck {
	check := doctorCheck{Name: "devtools endpoint"}
	base, err := url.Parse(devTools)
	if err != nil {
		check.Detail = fmt.Sprintf("invalid DevTools URL: %v", err)
		return check
	}

	client := &http.Client{Timeout: 2 * time.Second}
	versionURL := base.JoinPath("json", "version").String()
	resp, err := client.Get(versionURL)
	if err != nil {
		check.Detail = fmt.Sprintf("browser not reachable at %s (start it with remote debugging enabled)", devTools)
		return check
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		check.Detail = fmt.Sprintf("%s returned %s", versionURL, resp.Status)
		return check
	}

	wsURL := *base
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL.JoinPath("devtools", "browser").String(), nil)
	if err != nil {
		// HTTP works but the ws upgrade does not; still report reachable,
		// session attach dials the per-page target instead.
		check.OK = true
		check.Detail = fmt.Sprintf("%s reachable (browser ws target not open)", devTools)
		return check
	}
	conn.Close(websocket.StatusNormalClosure, "doctor") //nolint:errcheck
	check.OK = true
	check.Detail = fmt.Sprintf("%s reachable", devTools)
	return check
}
