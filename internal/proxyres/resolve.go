// Package proxyres resolves the browser debug proxy executable shipped inside
// the WebAssembly debug-proxy NuGet package by version.
package proxyres

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mjurkovic/dpx/internal/proc"
)

// DefaultVersion is the proxy package version used when none is requested.
const DefaultVersion = "5.0.0"

const (
	packageID = "microsoft.aspnetcore.components.webassembly.debugproxy"
	hostDLL   = "BrowserDebugHost.dll"
)

// Resolver locates the debug proxy under a NuGet package cache root.
type Resolver struct {
	// Root is the package cache root. Empty means ~/.nuget/packages.
	Root string
}

// DLLPath returns the path of the proxy host dll for version.
// The file must exist; a missing package is a resolution error naming the
// expected path so the caller can surface an actionable hint.
func (r *Resolver) DLLPath(version string) (string, error) {
	if version == "" {
		version = DefaultVersion
	}
	root := r.Root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		root = filepath.Join(home, ".nuget", "packages")
	}
	path := filepath.Join(root, packageID, version, "tools", "BlazorDebugProxy", hostDLL)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("debug proxy %s not found at %s: %w", version, path, err)
	}
	return path, nil
}

// LaunchSpec builds the launch specification for the proxy: the host dll run
// under dotnet exec, pointed at the browser's DevTools endpoint and told
// which probed port to listen on.
func (r *Resolver) LaunchSpec(version, devToolsURL string, port int) (proc.LaunchSpec, error) {
	dll, err := r.DLLPath(version)
	if err != nil {
		return proc.LaunchSpec{}, err
	}
	args := []string{"exec", dll, "--DevToolsUrl", devToolsURL}
	if port > 0 {
		args = append(args, "--urls", fmt.Sprintf("http://127.0.0.1:%d", port))
	}
	return proc.LaunchSpec{Program: "dotnet", Args: args}, nil
}
