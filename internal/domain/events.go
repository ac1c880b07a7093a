package domain

import "time"

// SchemaVersion is the current NDJSON event schema version.
const SchemaVersion = 1

// StateChange is emitted every time the orchestrator's state machine moves.
type StateChange struct {
	Type          string `json:"type"` // "state_change"
	SchemaVersion int    `json:"schemaVersion"`
	From          string `json:"from"`
	To            string `json:"to"`
	Timestamp     string `json:"timestamp"`
}

// NewStateChange creates a StateChange event.
func NewStateChange(from, to string, at time.Time) *StateChange {
	return &StateChange{
		Type:          "state_change",
		SchemaVersion: SchemaVersion,
		From:          from,
		To:            to,
		Timestamp:     at.UTC().Format(time.RFC3339),
	}
}

// ProxyReady is emitted once the debug proxy's listening address has been
// extracted from its output and the pid registered under it.
type ProxyReady struct {
	Type          string `json:"type"` // "proxy_ready"
	SchemaVersion int    `json:"schemaVersion"`
	Address       string `json:"address"`
	InspectURI    string `json:"inspect_uri,omitempty"`
	PID           int    `json:"pid"`
	Port          int    `json:"port"` // probed debugging port handed to the proxy
	Timestamp     string `json:"timestamp"`
}

// NewProxyReady creates a ProxyReady event.
func NewProxyReady(address, inspectURI string, pid, port int, at time.Time) *ProxyReady {
	return &ProxyReady{
		Type:          "proxy_ready",
		SchemaVersion: SchemaVersion,
		Address:       address,
		InspectURI:    inspectURI,
		PID:           pid,
		Port:          port,
		Timestamp:     at.UTC().Format(time.RFC3339),
	}
}

// SessionStart is emitted when a debugging session reaches SessionActive.
type SessionStart struct {
	Type          string `json:"type"` // "session_start"
	SchemaVersion int    `json:"schemaVersion"`
	AppSession    string `json:"app_session,omitempty"`
	BrowserSess   string `json:"browser_session"`
	ProxyAddress  string `json:"proxy_address"`
	Timestamp     string `json:"timestamp"`
}

// NewSessionStart creates a SessionStart event.
func NewSessionStart(appSession, browserSession, proxyAddress string, at time.Time) *SessionStart {
	return &SessionStart{
		Type:          "session_start",
		SchemaVersion: SchemaVersion,
		AppSession:    appSession,
		BrowserSess:   browserSession,
		ProxyAddress:  proxyAddress,
		Timestamp:     at.UTC().Format(time.RFC3339),
	}
}

// SessionEnd is emitted when the session has been torn down.
type SessionEnd struct {
	Type          string `json:"type"` // "session_end"
	SchemaVersion int    `json:"schemaVersion"`
	TriggeredBy   string `json:"triggered_by"` // name of the session whose termination fired first
	ProxyAddress  string `json:"proxy_address"`
	DurationSecs  int    `json:"duration_seconds"`
}

// NewSessionEnd creates a SessionEnd event.
func NewSessionEnd(triggeredBy, proxyAddress string, duration time.Duration) *SessionEnd {
	return &SessionEnd{
		Type:          "session_end",
		SchemaVersion: SchemaVersion,
		TriggeredBy:   triggeredBy,
		ProxyAddress:  proxyAddress,
		DurationSecs:  int(duration.Seconds()),
	}
}

// ProbeResult is emitted by the port prober.
type ProbeResult struct {
	Type          string `json:"type"` // "probe_result"
	SchemaVersion int    `json:"schemaVersion"`
	StartPort     int    `json:"start_port"`
	Port          int    `json:"port"`
	Attempts      int    `json:"attempts"`
}

// KillResult is emitted by an explicit kill request.
type KillResult struct {
	Type          string `json:"type"` // "kill_result"
	SchemaVersion int    `json:"schemaVersion"`
	Address       string `json:"address"`
	PID           int    `json:"pid,omitempty"`
	Killed        bool   `json:"killed"` // false means no-op (nothing registered)
}
