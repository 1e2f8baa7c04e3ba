package main

import (
	"net/url"
	"strings"
)

// normalizeRelayAddress turns user input into a relay URL. A bare host gets
// the secure websocket scheme; anything that already carries a scheme is
// returned as typed.
func normalizeRelayAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if strings.Contains(addr, "://") {
		return addr
	}
	return "wss://" + addr
}

// isAcceptableAddress reports whether addr, once normalized, is a ws:// or
// wss:// URL with a host. The controller never dials anything else.
func isAcceptableAddress(addr string) bool {
	norm := normalizeRelayAddress(addr)
	if norm == "" {
		return false
	}
	u, err := url.Parse(norm)
	if err != nil {
		return false
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return false
	}
	return u.Host != ""
}
