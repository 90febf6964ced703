package app

import (
	"net"
	"net/http"
	"time"
)

const maxHandshakeTimeout = 5 * time.Second

// newFetchHTTPClient returns the client shared by all fetch workers. Each
// worker holds at most one connection per host, and the dial and TLS phases
// never outlast the per-URL fetch timeout. The overall request deadline comes
// from the fetch client's context.
func newFetchHTTPClient(workers int, fetchTimeout time.Duration) *http.Client {
	if workers < 1 {
		workers = 1
	}
	handshake := maxHandshakeTimeout
	if fetchTimeout > 0 && fetchTimeout < handshake {
		handshake = fetchTimeout
	}
	dialer := &net.Dialer{Timeout: handshake, KeepAlive: 30 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          4 * workers,
			MaxIdleConnsPerHost:   workers,
			MaxConnsPerHost:       workers,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   handshake,
			ExpectContinueTimeout: time.Second,
		},
	}
}
