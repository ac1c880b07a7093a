package session

// State is the orchestrator's position in a debugging session's lifecycle.
type State int

const (
	StateIdle State = iota
	StateAppLaunching
	StateAppRunning
	StateProxyLaunching
	StateProxyAddressPending
	StateProxyReady
	StateBrowserLaunching
	StateSessionActive
	StateTerminating
	StateDone
)

var stateNames = map[State]string{
	StateIdle:                "Idle",
	StateAppLaunching:        "AppLaunching",
	StateAppRunning:          "AppRunning",
	StateProxyLaunching:      "ProxyLaunching",
	StateProxyAddressPending: "ProxyAddressPending",
	StateProxyReady:          "ProxyReady",
	StateBrowserLaunching:    "BrowserLaunching",
	StateSessionActive:       "SessionActive",
	StateTerminating:         "Terminating",
	StateDone:                "Done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}
