// Package netprobe finds free local TCP ports for the debug proxy to bind.
package netprobe

import (
	"fmt"
	"net"
	"strconv"
)

// DefaultMaxAttempts bounds how many consecutive ports a probe will try
// before giving up. Probing is inherently racy: a port reported free here can
// be taken by another process before the caller binds it.
const DefaultMaxAttempts = 1000

// FindAvailablePort returns the first unbound TCP port at or above
// startingFrom, trying up to DefaultMaxAttempts consecutive ports.
func FindAvailablePort(startingFrom int) (int, error) {
	return FindAvailablePortN(startingFrom, DefaultMaxAttempts)
}

// FindAvailablePortN is FindAvailablePort with an explicit attempts bound.
// Each probe transiently binds and releases the candidate port; bind failures
// (port in use, permission denied) move on to the next port.
func FindAvailablePortN(startingFrom, maxAttempts int) (int, error) {
	if startingFrom <= 0 || startingFrom > 65535 {
		return 0, fmt.Errorf("invalid starting port %d", startingFrom)
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	for i := 0; i < maxAttempts; i++ {
		port := startingFrom + i
		if port > 65535 {
			break
		}
		l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			continue
		}
		l.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no available port found in range %d-%d", startingFrom, startingFrom+maxAttempts-1)
}
