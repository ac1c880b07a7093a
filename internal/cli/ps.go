package cli

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/mjurkovic/dpx/internal/proc"
)

// PsCmd lists registered debug proxies. Entries whose process is gone are
// purged from the snapshot instead of listed.
type PsCmd struct {
	StatePath string `help:"Registry snapshot path" hidden:""`
}

type psReport struct {
	Type          string          `json:"type"` // "registry"
	SchemaVersion int             `json:"schemaVersion"`
	Entries       []registryEntry `json:"entries"`
}

// Run executes the ps command.
func (c *PsCmd) Run(globals *Globals) error {
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

	live := lo.Filter(st.Entries, func(e registryEntry, _ int) bool {
		return proc.Alive(e.PID)
	})
	if len(live) != len(st.Entries) {
		st.Entries = live
		saveRegistryState(statePath, st) //nolint:errcheck
	}

	if globals.Format == "ndjson" {
		return newNDJSONSink(globals).Write(&psReport{Type: "registry", SchemaVersion: 1, Entries: live})
	}

	if len(live) == 0 {
		fmt.Fprintln(globals.Stdout, "No registered debug proxies")
		return nil
	}

	table := tablewriter.NewWriter(globals.Stdout)
	table.Header("Address", "PID", "Port", "Age")
	for _, e := range live {
		table.Append(e.Address, fmt.Sprintf("%d", e.PID), fmt.Sprintf("%d", e.Port), entryAge(e.RegisteredAt)) //nolint:errcheck
	}
	return table.Render()
}

func entryAge(registeredAt string) string {
	t, err := time.Parse(time.RFC3339, registeredAt)
	if err != nil {
		return "-"
	}
	return time.Since(t).Round(time.Second).String()
}
