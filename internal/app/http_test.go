package app

import (
	"net/http"
	"testing"
	"time"
)

func TestNewFetchHTTPClient_PoolFollowsWorkers(t *testing.T) {
	c := newFetchHTTPClient(8, 10*time.Second)
	if c.Timeout != 0 {
		t.Fatalf("request deadlines come from the fetch client, got Timeout=%v", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", c.Transport)
	}
	if tr.MaxIdleConnsPerHost != 8 || tr.MaxConnsPerHost != 8 {
		t.Fatalf("pool not sized to workers: idle=%d max=%d", tr.MaxIdleConnsPerHost, tr.MaxConnsPerHost)
	}
	if tr.TLSHandshakeTimeout != maxHandshakeTimeout {
		t.Fatalf("handshake timeout %v", tr.TLSHandshakeTimeout)
	}
}

func TestNewFetchHTTPClient_ShortFetchTimeout(t *testing.T) {
	tr := newFetchHTTPClient(0, 500*time.Millisecond).Transport.(*http.Transport)
	if tr.TLSHandshakeTimeout != 500*time.Millisecond {
		t.Fatalf("handshake should not outlast the fetch timeout, got %v", tr.TLSHandshakeTimeout)
	}
	if tr.MaxConnsPerHost != 1 {
		t.Fatalf("worker count below one should be clamped, got %d", tr.MaxConnsPerHost)
	}
}
