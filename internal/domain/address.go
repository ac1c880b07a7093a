package domain

import (
	"net"
	"net/url"
	"strings"
)

// RewriteToWebSocket converts an extracted proxy listening address into the
// websocket endpoint handed to the browser debug adapter: http becomes ws,
// https becomes wss, and loopback IP hosts normalize to "localhost".
func RewriteToWebSocket(address string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(address))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	host := u.Hostname()
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		if port := u.Port(); port != "" {
			u.Host = net.JoinHostPort("localhost", port)
		} else {
			u.Host = "localhost"
		}
	}
	return u.String(), nil
}
