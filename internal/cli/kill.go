package cli

import (
	"github.com/mjurkovic/dpx/internal/domain"
	"github.com/mjurkovic/dpx/internal/proc"
)

// KillCmd terminates the debug proxy registered under an address. Killing an
// address with no registration is a no-op, not an error: termination must be
// idempotent against duplicate or late requests.
type KillCmd struct {
	Address   string `arg:"" help:"Proxy listening address, e.g. http://127.0.0.1:9300"`
	StatePath string `help:"Registry snapshot path" hidden:""`
}

// Run executes the kill command.
func (c *KillCmd) Run(globals *Globals) error {
	statePath := c.StatePath
	if statePath == "" {
		p, err := defaultRegistryStatePath()
		if err != nil {
			return outputErrorCommon(globals, "STATE_UNAVAILABLE", err.Error())
		}
		statePath = p
	}

	st, err := loadRegistryState(statePath)
	if err != nil {
		return outputErrorCommon(globals, "STATE_UNAVAILABLE", err.Error())
	}

	registry := proc.NewRegistry()
	for _, e := range st.Entries {
		registry.Register(e.Address, e.PID)
	}

	pid, killed := registry.Terminate(c.Address)
	if _, ok := st.removeEntry(c.Address); ok {
		saveRegistryState(statePath, st) //nolint:errcheck
	}

	events := newEventSink(globals)
	return events.Write(&domain.KillResult{
		Type:          "kill_result",
		SchemaVersion: domain.SchemaVersion,
		Address:       c.Address,
		PID:           pid,
		Killed:        killed,
	})
}
