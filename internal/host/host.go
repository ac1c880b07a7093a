// Package host models the debugging environment the orchestrator talks to:
// anything that can start named debug sessions and report their termination.
// The headless implementation drives real child processes and NDJSON events.
package host

import (
	"context"

	"github.com/mjurkovic/dpx/internal/domain"
)

// Action is an actionable link attached to a user-facing error.
type Action struct {
	Title string
	URL   string
}

// DebugHost is what the session orchestrator needs from its debugging
// environment: start named debug sessions, hear about session terminations,
// and surface user-facing errors.
type DebugHost interface {
	// StartDebugSession starts the debug session described by the
	// descriptor. It returns once the session is started (the process
	// handle exists or the adapter attached), not when the session ends.
	StartDebugSession(ctx context.Context, d domain.Descriptor) error

	// OnDidTerminateSession subscribes fn to session-termination
	// notifications. fn receives the terminated session's name. The
	// returned function unsubscribes; calling it more than once is safe.
	OnDidTerminateSession(fn func(name string)) (unsubscribe func())

	// ShowError surfaces a user-facing error with optional actions.
	ShowError(message string, actions ...Action)
}
