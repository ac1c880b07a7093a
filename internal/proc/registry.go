package proc

import (
	"errors"
	"sync"
	"syscall"
)

// Registry maps a discovered proxy listening address to the pid that produced
// it so the proxy can later be terminated. At most one live registration
// exists per address. Not persisted; scoped to the owning orchestrator.
type Registry struct {
	mu      sync.Mutex
	entries map[string]int

	// injectable for tests
	kill  func(pid int) error
	alive func(pid int) bool
}

// NewRegistry creates an empty registry signaling real processes.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]int),
		kill:    defaultKill,
		alive:   defaultAlive,
	}
}

// NewRegistryWithSignals creates a registry with injected kill and liveness
// functions.
func NewRegistryWithSignals(kill func(pid int) error, alive func(pid int) bool) *Registry {
	return &Registry{
		entries: make(map[string]int),
		kill:    kill,
		alive:   alive,
	}
}

// Register records pid under address, replacing any previous registration.
func (r *Registry) Register(address string, pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[address] = pid
}

// Lookup returns the pid registered under address.
func (r *Registry) Lookup(address string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pid, ok := r.entries[address]
	return pid, ok
}

// Unregister removes the registration for address, if any.
func (r *Registry) Unregister(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, address)
}

// Addresses returns the currently registered addresses.
func (r *Registry) Addresses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for addr := range r.entries {
		out = append(out, addr)
	}
	return out
}

// Terminate sends a termination signal to the process registered under
// address and removes the entry. Unknown addresses are a silent no-op, so
// duplicate or late termination requests are safe. A registration whose
// process already exited is purged without signaling, so a recycled pid is
// never killed.
func (r *Registry) Terminate(address string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pid, ok := r.entries[address]
	if !ok {
		return 0, false
	}
	delete(r.entries, address)

	if !r.alive(pid) {
		return pid, false
	}
	if err := r.kill(pid); err != nil {
		return pid, false
	}
	return pid, true
}

// Alive reports whether pid refers to a live process.
func Alive(pid int) bool {
	return defaultAlive(pid)
}

func defaultKill(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

// defaultAlive probes liveness with signal 0. EPERM means the process exists
// but belongs to someone else; that still counts as alive.
func defaultAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
