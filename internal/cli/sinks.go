package cli

import (
	"github.com/mjurkovic/dpx/internal/host"
	"github.com/mjurkovic/dpx/internal/output"
)

func newNDJSONSink(globals *Globals) host.EventSink {
	return output.NewNDJSONWriter(globals.Stdout)
}

func newTextSink(globals *Globals) host.EventSink {
	return output.NewTextWriter(globals.Stdout)
}

// persistRegistration mirrors one live registration into the on-disk
// registry snapshot. Failures are swallowed: the in-memory registry is the
// source of truth and the snapshot is convenience for kill/ps.
func persistRegistration(path, address string, pid, port int) {
	st, err := loadRegistryState(path)
	if err != nil {
		return
	}
	st.upsertEntry(registryEntry{Address: address, PID: pid, Port: port, RegisteredAt: nowRFC3339()})
	saveRegistryState(path, st) //nolint:errcheck
}

// unpersistRegistration drops one registration from the on-disk snapshot.
func unpersistRegistration(path, address string) {
	st, err := loadRegistryState(path)
	if err != nil {
		return
	}
	if _, ok := st.removeEntry(address); ok {
		saveRegistryState(path, st) //nolint:errcheck
	}
}
