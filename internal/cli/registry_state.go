package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// registryState mirrors live proxy registrations on disk so kill and ps work
// across CLI invocations. It is a best-effort snapshot, not session state:
// entries whose pid is gone are purged on load.
type registryState struct {
	Type          string          `json:"type"` // "registry_state"
	SchemaVersion int             `json:"schemaVersion"`
	Entries       []registryEntry `json:"entries"`
	UpdatedAt     string          `json:"updated_at,omitempty"`
}

type registryEntry struct {
	Address      string `json:"address"`
	PID          int    `json:"pid"`
	Port         int    `json:"port,omitempty"`
	RegisteredAt string `json:"registered_at,omitempty"`
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func defaultRegistryStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".dpx")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "registry.json"), nil
}

func loadRegistryState(path string) (*registryState, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("registry state path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &registryState{Type: "registry_state", SchemaVersion: 1}, nil
		}
		return nil, err
	}
	var st registryState
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func saveRegistryState(path string, st *registryState) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("registry state path is required")
	}
	if st == nil {
		return errors.New("registry state is required")
	}
	st.Type = "registry_state"
	st.SchemaVersion = 1
	st.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

// upsertEntry replaces the entry for address or appends a new one, keeping
// at most one registration per address.
func (st *registryState) upsertEntry(e registryEntry) {
	for i := range st.Entries {
		if st.Entries[i].Address == e.Address {
			st.Entries[i] = e
			return
		}
	}
	st.Entries = append(st.Entries, e)
}

// removeEntry deletes the entry for address, reporting whether it existed.
func (st *registryState) removeEntry(address string) (registryEntry, bool) {
	for i := range st.Entries {
		if st.Entries[i].Address == address {
			e := st.Entries[i]
			st.Entries = append(st.Entries[:i], st.Entries[i+1:]...)
			return e, true
		}
	}
	return registryEntry{}, false
}
