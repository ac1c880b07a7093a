package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjurkovic/dpx/internal/config"
)

// testGlobals creates a Globals struct with captured stdout/stderr
func testGlobals(format string) (*Globals, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &Globals{
		Format:  format,
		Level:   "info",
		Quiet:   false,
		Verbose: false,
		Stdout:  stdout,
		Stderr:  stderr,
		Config:  config.Default(),
	}, stdout, stderr
}

// --- Config Command Tests ---

func TestConfigShowCmd_Run(t *testing.T) {
	t.Run("outputs config in text format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		cmd := &ConfigShowCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		output := stdout.String()
		assert.Contains(t, output, "Current Configuration:")
		assert.Contains(t, output, "format:")
		assert.Contains(t, output, "level:")
		assert.Contains(t, output, "Defaults:")
		assert.Contains(t, output, "proxy_version: 5.0.0")
	})

	t.Run("outputs config in NDJSON format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ConfigShowCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(stdout.Bytes(), &result)
		require.NoError(t, err)

		assert.Equal(t, "config", result["type"])
		assert.Contains(t, result, "format")
		assert.Contains(t, result, "level")
		assert.Contains(t, result, "defaults")
	})
}

func TestConfigPathCmd_Run(t *testing.T) {
	t.Run("outputs path info in text format when no config", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		cmd := &ConfigPathCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		output := stdout.String()
		// Either shows the path or says no config found
		assert.True(t, strings.Contains(output, "Config file:") || strings.Contains(output, "No configuration file found"))
	})

	t.Run("outputs path in NDJSON format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ConfigPathCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(stdout.Bytes(), &result)
		require.NoError(t, err)

		assert.Equal(t, "config_path", result["type"])
		assert.Contains(t, result, "path")
	})
}

func TestConfigGenerateCmd_Run(t *testing.T) {
	t.Run("outputs sample config YAML", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		cmd := &ConfigGenerateCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		output := stdout.String()
		assert.Contains(t, output, "# dpx configuration file")
		assert.Contains(t, output, "format: ndjson")
		assert.Contains(t, output, "level: info")
		assert.Contains(t, output, "defaults:")
		assert.Contains(t, output, "devtools_url: http://localhost:9222")
		assert.Contains(t, output, "start_port: 9300")
	})
}

// --- Probe Command Tests ---

func TestProbeCmd_Run(t *testing.T) {
	t.Run("emits probe_result for a free port", func(t *testing.T) {
		// Reserve a port to learn a currently-free number, then release it
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		start := ln.Addr().(*net.TCPAddr).Port
		require.NoError(t, ln.Close())

		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ProbeCmd{Start: start, Attempts: 10}

		err = cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "probe_result", result["type"])
		assert.Equal(t, float64(start), result["start_port"])
		assert.GreaterOrEqual(t, result["port"], float64(start))
	})

	t.Run("skips past a bound port", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()
		start := ln.Addr().(*net.TCPAddr).Port

		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ProbeCmd{Start: start, Attempts: 100}

		err = cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Greater(t, result["port"], float64(start))
	})

	t.Run("reports PROBE_FAILED for an invalid start port", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ProbeCmd{Start: -1, Attempts: 1}

		err := cmd.Run(globals)
		require.Error(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "error", result["type"])
		assert.Equal(t, "PROBE_FAILED", result["code"])
	})
}

// --- Launch Command Tests ---

func TestLaunchCmd_Run(t *testing.T) {
	t.Run("app launch failure emits exactly one error event", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &LaunchCmd{Hosted: true, Program: filepath.Join(t.TempDir(), "missing-app")}

		err := cmd.Run(globals)
		require.Error(t, err)

		errorEvents := 0
		for _, line := range bytes.Split(stdout.Bytes(), []byte("\n")) {
			if len(line) == 0 {
				continue
			}
			var event map[string]interface{}
			require.NoError(t, json.Unmarshal(line, &event), "line: %s", line)
			if event["type"] == "error" {
				errorEvents++
				assert.Equal(t, "APP_LAUNCH_FAILED", event["code"])
			}
		}
		assert.Equal(t, 1, errorEvents)
	})
}

// --- Kill Command Tests ---

func TestKillCmd_Run(t *testing.T) {
	t.Run("unknown address is a no-op", func(t *testing.T) {
		statePath := filepath.Join(t.TempDir(), "registry.json")
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &KillCmd{Address: "http://127.0.0.1:9300", StatePath: statePath}

		err := cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "kill_result", result["type"])
		assert.Equal(t, false, result["killed"])
	})

	t.Run("terminates a registered live process", func(t *testing.T) {
		sleeper := exec.Command("sleep", "60")
		require.NoError(t, sleeper.Start())
		defer func() {
			sleeper.Process.Kill() //nolint:errcheck
			sleeper.Wait()         //nolint:errcheck
		}()

		statePath := filepath.Join(t.TempDir(), "registry.json")
		st := &registryState{}
		st.upsertEntry(registryEntry{Address: "http://127.0.0.1:9301", PID: sleeper.Process.Pid, Port: 9301})
		require.NoError(t, saveRegistryState(statePath, st))

		globals, stdout, _ := testGlobals("ndjson")
		cmd := &KillCmd{Address: "http://127.0.0.1:9301", StatePath: statePath}

		err := cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, true, result["killed"])
		assert.Equal(t, float64(sleeper.Process.Pid), result["pid"])

		// Registration is gone from the snapshot
		after, err := loadRegistryState(statePath)
		require.NoError(t, err)
		assert.Empty(t, after.Entries)
	})
}

// --- Ps Command Tests ---

func TestPsCmd_Run(t *testing.T) {
	t.Run("lists live registrations and purges dead ones", func(t *testing.T) {
		statePath := filepath.Join(t.TempDir(), "registry.json")
		st := &registryState{}
		st.upsertEntry(registryEntry{Address: "http://127.0.0.1:9300", PID: os.Getpid(), Port: 9300, RegisteredAt: nowRFC3339()})
		// PID unlikely to exist
		st.upsertEntry(registryEntry{Address: "http://127.0.0.1:9301", PID: 99999999, Port: 9301, RegisteredAt: nowRFC3339()})
		require.NoError(t, saveRegistryState(statePath, st))

		globals, stdout, _ := testGlobals("ndjson")
		cmd := &PsCmd{StatePath: statePath}

		err := cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "registry", result["type"])
		entries := result["entries"].([]interface{})
		require.Len(t, entries, 1)
		entry := entries[0].(map[string]interface{})
		assert.Equal(t, "http://127.0.0.1:9300", entry["address"])

		// Dead entry was purged from the snapshot too
		after, err := loadRegistryState(statePath)
		require.NoError(t, err)
		require.Len(t, after.Entries, 1)
	})

	t.Run("renders a table in text format", func(t *testing.T) {
		statePath := filepath.Join(t.TempDir(), "registry.json")
		st := &registryState{}
		st.upsertEntry(registryEntry{Address: "http://127.0.0.1:9300", PID: os.Getpid(), Port: 9300, RegisteredAt: nowRFC3339()})
		require.NoError(t, saveRegistryState(statePath, st))

		globals, stdout, _ := testGlobals("text")
		cmd := &PsCmd{StatePath: statePath}

		err := cmd.Run(globals)
		require.NoError(t, err)

		output := stdout.String()
		assert.Contains(t, output, "http://127.0.0.1:9300")
		assert.Contains(t, output, fmt.Sprintf("%d", os.Getpid()))
	})

	t.Run("reports empty registry in text format", func(t *testing.T) {
		statePath := filepath.Join(t.TempDir(), "registry.json")
		globals, stdout, _ := testGlobals("text")
		cmd := &PsCmd{StatePath: statePath}

		err := cmd.Run(globals)
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No registered debug proxies")
	})
}

// --- Doctor Command Tests ---

func TestDoctorCmd_Run(t *testing.T) {
	t.Run("fails when nothing is installed", func(t *testing.T) {
		emptyPath := t.TempDir()
		t.Setenv("PATH", emptyPath)

		globals, stdout, _ := testGlobals("ndjson")
		cmd := &DoctorCmd{
			PackageRoot: t.TempDir(),
			DevToolsURL: "http://127.0.0.1:1", // nothing listens here
		}

		err := cmd.Run(globals)
		require.Error(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "doctor_report", result["type"])
		assert.Equal(t, false, result["ok"])
		checks := result["checks"].([]interface{})
		require.Len(t, checks, 3)
		for _, raw := range checks {
			check := raw.(map[string]interface{})
			assert.Equal(t, false, check["ok"], "check %v should fail", check["name"])
		}
	})

	t.Run("devtools check passes against a reachable endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/json/version" {
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `{"Browser":"Chrome/90.0"}`)
				return
			}
			http.NotFound(w, r)
		}))
		defer srv.Close()

		check := checkDevTools(srv.URL)
		assert.True(t, check.OK)
		assert.Contains(t, check.Detail, "reachable")
	})

	t.Run("styled FAIL lines in text format", func(t *testing.T) {
		emptyPath := t.TempDir()
		t.Setenv("PATH", emptyPath)

		globals, stdout, _ := testGlobals("text")
		cmd := &DoctorCmd{
			PackageRoot: t.TempDir(),
			DevToolsURL: "http://127.0.0.1:1",
		}

		err := cmd.Run(globals)
		require.Error(t, err)
		assert.Contains(t, stdout.String(), "FAIL")
		assert.Contains(t, stdout.String(), "dotnet not found on PATH")
	})
}
