package cli

import (
	"github.com/mjurkovic/dpx/internal/domain"
	"github.com/mjurkovic/dpx/internal/netprobe"
)

// ProbeCmd finds the first available TCP port at or above a starting port.
type ProbeCmd struct {
	Start    int `short:"s" help:"Starting port" default:"0"`
	Attempts int `help:"Maximum consecutive ports to try" default:"1000"`
}

// Run executes the probe command.
func (c *ProbeCmd) Run(globals *Globals) error {
	start := c.Start
	if start == 0 {
		start = globals.Config.Defaults.StartPort
	}

	port, err := netprobe.FindAvailablePortN(start, c.Attempts)
	if err != nil {
		return outputErrorCommon(globals, "PROBE_FAILED", err.Error())
	}

	events := newEventSink(globals)
	return events.Write(&domain.ProbeResult{
		Type:          "probe_result",
		SchemaVersion: domain.SchemaVersion,
		StartPort:     start,
		Port:          port,
		Attempts:      port - start + 1,
	})
}
