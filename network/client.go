// Package network holds the HTTP client shared by the Discord session and the release lookup.
package network

import (
	"net/http"
	"time"
)

// Client is shared so the gateway REST calls and the release check reuse one connection pool.
var Client = &http.Client{
	Timeout:   20 * time.Second,
	Transport: newTransport(),
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 32
	t.MaxIdleConnsPerHost = 16
	t.IdleConnTimeout = 90 * time.Second
	t.ResponseHeaderTimeout = 15 * time.Second
	t.ExpectContinueTimeout = time.Second
	return t
}
