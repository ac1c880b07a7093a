package netprobe

import (
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reserve binds an ephemeral port and returns it still held.
func reserve(t *testing.T) (int, net.Listener) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return l.Addr().(*net.TCPAddr).Port, l
}

func TestFindAvailablePort(t *testing.T) {
	t.Run("returns the starting port when free", func(t *testing.T) {
		port, l := reserve(t)
		l.Close() // release so the probe finds it free

		got, err := FindAvailablePort(port)
		require.NoError(t, err)
		assert.Equal(t, port, got)
	})

	t.Run("skips past a bound port", func(t *testing.T) {
		port, l := reserve(t)
		defer l.Close()

		got, err := FindAvailablePort(port)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, port+1)

		// the returned port must be bindable at return time
		probe, err := net.Listen("tcp", "127.0.0.1:"+strconv.Itoa(got))
		require.NoError(t, err)
		probe.Close()
	})

	t.Run("releases the probed port", func(t *testing.T) {
		port, l := reserve(t)
		l.Close()

		got, err := FindAvailablePort(port)
		require.NoError(t, err)

		re, err := net.Listen("tcp", "127.0.0.1:"+strconv.Itoa(got))
		require.NoError(t, err)
		re.Close()
	})
}

func TestFindAvailablePortN(t *testing.T) {
	t.Run("fails when attempts exhausted", func(t *testing.T) {
		port, l := reserve(t)
		defer l.Close()

		_, err := FindAvailablePortN(port, 1)
		assert.Error(t, err)
	})

	t.Run("rejects invalid starting port", func(t *testing.T) {
		_, err := FindAvailablePort(0)
		assert.Error(t, err)
		_, err = FindAvailablePort(70000)
		assert.Error(t, err)
	})

	t.Run("stops at the top of the port range", func(t *testing.T) {
		// 65535 may or may not be free; either way the probe must not wrap.
		got, err := FindAvailablePortN(65535, 10)
		if err == nil {
			assert.Equal(t, 65535, got)
		}
	})
}
