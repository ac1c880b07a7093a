package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAppDescriptor(t *testing.T) {
	t.Run("default launch runs dotnet run", func(t *testing.T) {
		d := BuildAppDescriptor(Descriptor{"request": "launch", "hosted": false})
		assert.Equal(t, "dotnet", d.String("program"))
		assert.Equal(t, []string{"run"}, d["args"])
		assert.Equal(t, "${workspaceFolder}", d.String("cwd"))
		assert.Equal(t, AppSessionName, d.String("name"))
	})

	t.Run("hosted launch uses provided program with no args", func(t *testing.T) {
		d := BuildAppDescriptor(Descriptor{"hosted": true, "program": "myapp.dll"})
		assert.Equal(t, "myapp.dll", d.String("program"))
		assert.Empty(t, d["args"])
	})

	t.Run("overrides replace defaults", func(t *testing.T) {
		d := BuildAppDescriptor(Descriptor{"cwd": "/src/app", "env": map[string]string{"ASPNETCORE_ENVIRONMENT": "Development"}})
		assert.Equal(t, "/src/app", d.String("cwd"))
		assert.Equal(t, "Development", d.StringMap("env")["ASPNETCORE_ENVIRONMENT"])
	})

	t.Run("unrecognized keys pass through", func(t *testing.T) {
		d := BuildAppDescriptor(Descriptor{"justMyCode": false, "sourceMaps": true})
		assert.Equal(t, false, d["justMyCode"])
		assert.Equal(t, true, d["sourceMaps"])
	})
}

func TestBuildBrowserDescriptor(t *testing.T) {
	t.Run("defaults to chrome adapter", func(t *testing.T) {
		d := BuildBrowserDescriptor(Descriptor{}, "ws://localhost:9222/ws")
		assert.Equal(t, "chrome", d.String("type"))
		assert.Equal(t, "ws://localhost:9222/ws", d.String("inspectUri"))
		assert.Equal(t, BrowserSessionName, d.String("name"))
		assert.Equal(t, 30000, d.Int("timeout"))
	})

	t.Run("edge selects the edge adapter", func(t *testing.T) {
		d := BuildBrowserDescriptor(Descriptor{"browser": "edge"}, "ws://localhost:9222/ws")
		assert.Equal(t, "edge", d.String("type"))
		_, browserKept := d["browser"]
		assert.False(t, browserKept)
	})

	t.Run("url and timeout overrides survive", func(t *testing.T) {
		d := BuildBrowserDescriptor(Descriptor{"url": "https://localhost:5001", "timeout": 60000}, "ws://x")
		assert.Equal(t, "https://localhost:5001", d.String("url"))
		assert.Equal(t, 60000, d.Int("timeout"))
	})
}

func TestRewriteToWebSocket(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"http to ws with loopback normalized", "http://127.0.0.1:9222", "ws://localhost:9222"},
		{"https to wss", "https://127.0.0.1:9222/abc", "wss://localhost:9222/abc"},
		{"hostname left alone", "http://localhost:9222", "ws://localhost:9222"},
		{"ipv6 loopback normalized", "http://[::1]:9222", "ws://localhost:9222"},
		{"trailing whitespace trimmed", "http://127.0.0.1:9300 ", "ws://localhost:9300"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RewriteToWebSocket(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
