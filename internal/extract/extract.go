// Package extract discovers a process's listening address by scanning its
// output stream. The matching rule is a minimal ad hoc text protocol: the
// first line of the form "Now listening on: <address>" wins, everything after
// it is ignored.
package extract

import (
	"io"
	"regexp"
	"strings"
)

var listeningPattern = regexp.MustCompile(`Now listening on: (.*)`)

// Extractor consumes an output stream as arbitrary chunks and yields at most
// one extracted address. It implements io.Writer so it can sit directly on a
// process stdout pipe; chunks need not align with line boundaries.
type Extractor struct {
	buffer  strings.Builder
	matched bool
	closed  bool
	result  chan string
}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{result: make(chan string, 1)}
}

// Address returns the result channel. It delivers the first matched address
// and is closed afterwards; it closes without a value if the stream ends
// before a match, which callers must treat as a launch failure.
func (e *Extractor) Address() <-chan string {
	return e.result
}

// Write buffers p, scans any complete lines, and on first match delivers the
// captured address. Further writes are accepted and discarded once matched.
func (e *Extractor) Write(p []byte) (int, error) {
	if e.matched || e.closed {
		return len(p), nil
	}

	e.buffer.Write(p)
	content := e.buffer.String()
	lines := strings.Split(content, "\n")

	// Keep an incomplete trailing line buffered for the next chunk.
	if !strings.HasSuffix(content, "\n") {
		e.buffer.Reset()
		e.buffer.WriteString(lines[len(lines)-1])
		lines = lines[:len(lines)-1]
	} else {
		e.buffer.Reset()
	}

	for _, line := range lines {
		if m := listeningPattern.FindStringSubmatch(line); m != nil {
			e.matched = true
			e.result <- strings.TrimSpace(m[1])
			close(e.result)
			break
		}
	}
	return len(p), nil
}

// Close marks the stream as ended. A final buffered partial line is still
// tested so a match arriving without a trailing newline is not lost. If no
// match was seen the result channel closes empty.
func (e *Extractor) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.matched {
		return nil
	}
	if m := listeningPattern.FindStringSubmatch(e.buffer.String()); m != nil {
		e.matched = true
		e.result <- strings.TrimSpace(m[1])
		close(e.result)
		return nil
	}
	close(e.result)
	return nil
}

// Watch pumps r into a new Extractor on a goroutine, closing it on EOF, and
// returns the result channel. This is the usual way to attach the extractor
// to a launched process's stdout.
func Watch(r io.Reader) <-chan string {
	e := New()
	go func() {
		io.Copy(e, r) //nolint:errcheck // stream end, matched or not, is signaled via Close
		e.Close()
	}()
	return e.Address()
}
