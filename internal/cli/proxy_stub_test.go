package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plantProxyPackage lays out a fake debug-proxy package cache.
func plantProxyPackage(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "microsoft.aspnetcore.components.webassembly.debugproxy", "5.0.0", "tools", "BlazorDebugProxy")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BrowserDebugHost.dll"), []byte("dll"), 0o644))
	return root
}

// stubDotnet puts a fake dotnet binary with the given script body on PATH.
func stubDotnet(t *testing.T, script string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dotnet"), []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// findEvent scans an NDJSON buffer for the first event of the given type.
func findEvent(t *testing.T, buf *bytes.Buffer, eventType string) map[string]interface{} {
	t.Helper()
	for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var event map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &event), "line: %s", line)
		if event["type"] == eventType {
			return event
		}
	}
	t.Fatalf("no %q event in output:\n%s", eventType, buf.String())
	return nil
}

func TestProxyCmd_Run(t *testing.T) {
	t.Run("launches the proxy and persists the registration", func(t *testing.T) {
		stubDotnet(t, `#!/bin/sh
echo "Now listening on: http://127.0.0.1:9377"
exec sleep 60
`)
		root := plantProxyPackage(t)
		statePath := filepath.Join(t.TempDir(), "registry.json")

		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ProxyCmd{PackageRoot: root, StatePath: statePath}

		err := cmd.Run(globals)
		require.NoError(t, err)

		event := findEvent(t, stdout, "proxy_ready")
		assert.Equal(t, "http://127.0.0.1:9377", event["address"])
		assert.Equal(t, "ws://localhost:9377", event["inspect_uri"])

		st, err := loadRegistryState(statePath)
		require.NoError(t, err)
		require.Len(t, st.Entries, 1)
		assert.Equal(t, "http://127.0.0.1:9377", st.Entries[0].Address)
		pid := st.Entries[0].PID
		require.Greater(t, pid, 0)

		// Clean up the stub proxy left running on purpose
		syscall.Kill(pid, syscall.SIGKILL) //nolint:errcheck
	})

	t.Run("reports PROXY_LAUNCH_FAILED when the proxy never announces", func(t *testing.T) {
		stubDotnet(t, `#!/bin/sh
echo "error: unable to bind"
exit 1
`)
		root := plantProxyPackage(t)
		statePath := filepath.Join(t.TempDir(), "registry.json")

		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ProxyCmd{PackageRoot: root, StatePath: statePath}

		err := cmd.Run(globals)
		require.Error(t, err)

		event := findEvent(t, stdout, "error")
		assert.Equal(t, "PROXY_LAUNCH_FAILED", event["code"])

		st, err := loadRegistryState(statePath)
		require.NoError(t, err)
		assert.Empty(t, st.Entries)
	})

	t.Run("reports PROXY_LAUNCH_FAILED when the package is missing", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ProxyCmd{PackageRoot: t.TempDir(), StatePath: filepath.Join(t.TempDir(), "registry.json")}

		err := cmd.Run(globals)
		require.Error(t, err)

		event := findEvent(t, stdout, "error")
		assert.Equal(t, "PROXY_LAUNCH_FAILED", event["code"])
		assert.Contains(t, event["hint"], "dpx doctor")
	})
}
