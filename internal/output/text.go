package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/mjurkovic/dpx/internal/domain"
)

// TextWriter renders events as human-readable lines. Events it does not
// recognize fall back to a single JSON line so nothing is silently dropped.
type TextWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextWriter creates a TextWriter targeting w.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// Write renders one event.
func (t *TextWriter) Write(event any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	switch ev := event.(type) {
	case *domain.StateChange:
		_, err = fmt.Fprintf(t.w, "state: %s -> %s\n", ev.From, ev.To)
	case *domain.ProxyReady:
		_, err = fmt.Fprintf(t.w, "Debug proxy listening on %s (pid %d, port %d)\n", ev.Address, ev.PID, ev.Port)
	case *domain.SessionStart:
		_, err = fmt.Fprintf(t.w, "Session active: %s via proxy %s\n", ev.BrowserSess, ev.ProxyAddress)
	case *domain.SessionEnd:
		_, err = fmt.Fprintf(t.w, "Session ended (%s terminated); proxy %s stopped after %ds\n", ev.TriggeredBy, ev.ProxyAddress, ev.DurationSecs)
	case *domain.ProbeResult:
		_, err = fmt.Fprintf(t.w, "Port %d available (probed %d port(s) from %d)\n", ev.Port, ev.Attempts, ev.StartPort)
	case *domain.KillResult:
		if ev.Killed {
			_, err = fmt.Fprintf(t.w, "Terminated proxy at %s (pid %d)\n", ev.Address, ev.PID)
		} else {
			_, err = fmt.Fprintf(t.w, "No live proxy registered at %s\n", ev.Address)
		}
	default:
		b, merr := json.Marshal(event)
		if merr != nil {
			return merr
		}
		_, err = fmt.Fprintf(t.w, "%s\n", b)
	}
	return err
}

// WriteError renders a normalized error line.
func (t *TextWriter) WriteError(code, message string, hint ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(hint) > 0 && hint[0] != "" {
		_, err := fmt.Fprintf(t.w, "Error [%s]: %s (hint: %s)\n", code, message, hint[0])
		return err
	}
	_, err := fmt.Fprintf(t.w, "Error [%s]: %s\n", code, message)
	return err
}
