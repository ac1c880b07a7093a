package domain

import (
	"github.com/samber/lo"
)

// Well-known debug session names. Termination notifications are matched
// against these to decide whether a proxy should be torn down.
const (
	AppSessionName     = ".NET Core Launch (Blazor Standalone)"
	BrowserSessionName = ".NET Core Debug Blazor Web Assembly in Browser"
)

// Descriptor is a merged launch configuration for one process or one browser
// debug target. Keys the orchestrator does not recognize pass through to the
// debug adapter untouched.
type Descriptor map[string]any

// Merge returns a new descriptor with overrides applied on top of d.
// Override keys replace same-named defaults; everything else survives.
func (d Descriptor) Merge(overrides Descriptor) Descriptor {
	return lo.Assign(d, overrides)
}

// String returns the string value for key, or "" if absent or not a string.
func (d Descriptor) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Bool returns the bool value for key, or false if absent or not a bool.
func (d Descriptor) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// Int returns the int value for key, accepting int and float64 (JSON/YAML
// decoders deliver numbers as float64).
func (d Descriptor) Int(key string) int {
	switch v := d[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// StringMap returns the map value for key as map[string]string.
func (d Descriptor) StringMap(key string) map[string]string {
	out := map[string]string{}
	switch v := d[key].(type) {
	case map[string]string:
		return v
	case map[string]any:
		for k, val := range v {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}

// AppLaunchDefaults returns the default application launch descriptor.
// A plain "launch" request runs the project with the dotnet CLI; a hosted
// request uses the caller-supplied program path directly and no arguments.
func AppLaunchDefaults(hosted bool, program string) Descriptor {
	d := Descriptor{
		"name":    AppSessionName,
		"type":    "coreclr",
		"request": "launch",
		"program": "dotnet",
		"args":    []string{"run"},
		"cwd":     "${workspaceFolder}",
	}
	if hosted {
		d["program"] = program
		d["args"] = []string{}
	}
	return d
}

// BrowserLaunchDefaults returns the default browser debug descriptor.
// The adapter type follows the browser option: "edge" selects the Edge
// adapter, anything else debugs with Chrome.
func BrowserLaunchDefaults(browser string) Descriptor {
	adapterType := "chrome"
	if browser == "edge" {
		adapterType = "edge"
	}
	return Descriptor{
		"name":    BrowserSessionName,
		"type":    adapterType,
		"request": "launch",
		"timeout": 30000,
		"webRoot": "${workspaceFolder}",
	}
}

// BuildAppDescriptor merges caller options into the application defaults.
// Recognized options: hosted, program, cwd, env, noDebug, trace. Unrecognized
// keys pass through.
func BuildAppDescriptor(options Descriptor) Descriptor {
	defaults := AppLaunchDefaults(options.Bool("hosted"), options.String("program"))
	merged := defaults.Merge(options)
	// hosted/program already folded into the defaults shape
	delete(merged, "hosted")
	return merged
}

// BuildBrowserDescriptor merges caller options into the browser defaults and
// points the adapter at the extracted proxy address.
func BuildBrowserDescriptor(options Descriptor, inspectURI string) Descriptor {
	defaults := BrowserLaunchDefaults(options.String("browser"))
	merged := defaults.Merge(options)
	merged["inspectUri"] = inspectURI
	delete(merged, "browser")
	return merged
}
