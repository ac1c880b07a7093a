package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryStatePath(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	got, err := defaultRegistryStatePath()
	require.NoError(t, err)

	want := filepath.Join(tmp, ".dpx", "registry.json")
	require.Equal(t, want, got)

	info, err := os.Stat(filepath.Dir(got))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestLoadRegistryStateMissingFile(t *testing.T) {
	tmp := t.TempDir()
	got, err := loadRegistryState(filepath.Join(tmp, "missing.json"))
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got.Entries)
}

func TestSaveAndLoadRegistryStateRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "registry.json")

	st := &registryState{}
	st.upsertEntry(registryEntry{
		Address:      "http://127.0.0.1:9300",
		PID:          4242,
		Port:         9300,
		RegisteredAt: "2026-08-29T10:00:00Z",
	})
	require.NoError(t, saveRegistryState(path, st))

	loaded, err := loadRegistryState(path)
	require.NoError(t, err)
	require.Equal(t, "registry_state", loaded.Type)
	require.Equal(t, 1, loaded.SchemaVersion)
	require.Equal(t, st.Entries, loaded.Entries)
	require.NotEmpty(t, loaded.UpdatedAt)
}

func TestRegistryStateUpsertReplacesByAddress(t *testing.T) {
	st := &registryState{}
	st.upsertEntry(registryEntry{Address: "http://127.0.0.1:9300", PID: 1})
	st.upsertEntry(registryEntry{Address: "http://127.0.0.1:9301", PID: 2})
	st.upsertEntry(registryEntry{Address: "http://127.0.0.1:9300", PID: 3})

	require.Len(t, st.Entries, 2)
	require.Equal(t, 3, st.Entries[0].PID)
}

func TestRegistryStateRemoveEntry(t *testing.T) {
	st := &registryState{}
	st.upsertEntry(registryEntry{Address: "http://127.0.0.1:9300", PID: 1})

	removed, ok := st.removeEntry("http://127.0.0.1:9300")
	require.True(t, ok)
	require.Equal(t, 1, removed.PID)
	require.Empty(t, st.Entries)

	_, ok = st.removeEntry("http://127.0.0.1:9300")
	require.False(t, ok)
}
