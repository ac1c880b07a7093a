// Package proc launches external processes and tracks live debug proxies by
// their discovered listening address.
package proc

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// LaunchSpec describes one process to start.
type LaunchSpec struct {
	Program string
	Args    []string
	Dir     string
	Env     map[string]string // overrides merged over the parent environment
}

// Handle wraps a started process. Its output pipes are independently
// consumable and Done delivers the exit result regardless of whether anyone
// is still reading output.
type Handle struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
	done   chan error
}

// Launcher starts processes. The zero value is ready to use.
type Launcher struct{}

// Launch starts the process described by spec. Failures to start (executable
// not found, permission denied) return an error wrapping the cause.
func (l *Launcher) Launch(spec LaunchSpec) (*Handle, error) {
	cmd := exec.Command(spec.Program, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", spec.Program, err)
	}

	h := &Handle{
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		done:   make(chan error, 1),
	}
	go func() {
		h.done <- cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

// PID returns the process identifier.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// Stdout returns the process's standard output stream.
func (h *Handle) Stdout() io.ReadCloser { return h.stdout }

// Stderr returns the process's standard error stream.
func (h *Handle) Stderr() io.ReadCloser { return h.stderr }

// Done delivers the process exit result once and then closes.
func (h *Handle) Done() <-chan error { return h.done }

// Kill sends SIGKILL to the process.
func (h *Handle) Kill() error {
	return h.cmd.Process.Kill()
}
