// Package output emits machine-readable NDJSON events and human text so both
// agents and people can follow a debugging session.
package output

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/mjurkovic/dpx/internal/domain"
)

// NDJSONWriter writes one JSON object per line.
type NDJSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewNDJSONWriter creates an NDJSONWriter targeting w.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{enc: json.NewEncoder(w)}
}

// Write emits any event value as a single NDJSON line.
func (w *NDJSONWriter) Write(event any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(event)
}

// errorEvent is the normalized machine-readable failure shape.
type errorEvent struct {
	Type          string `json:"type"` // "error"
	SchemaVersion int    `json:"schemaVersion"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Hint          string `json:"hint,omitempty"`
}

// WriteError emits a normalized error event.
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	ev := errorEvent{
		Type:          "error",
		SchemaVersion: domain.SchemaVersion,
		Code:          code,
		Message:       message,
	}
	if len(hint) > 0 {
		ev.Hint = hint[0]
	}
	return w.Write(ev)
}
