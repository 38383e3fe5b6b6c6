package httpclient

import (
	"net"
	"net/http"
	"time"
)

const (
	defaultMaxIdleConns        = 256
	defaultMaxIdleConnsPerHost = 32
)

// NewClient returns an *http.Client tuned for load generation. The idle
// connection pool grows with maxConns so that every in-flight request can
// keep its connection between calls.
func NewClient(timeout time.Duration, maxConns int) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	maxIdle := defaultMaxIdleConns
	perHost := defaultMaxIdleConnsPerHost
	if maxConns > perHost {
		perHost = maxConns
	}
	if maxConns > maxIdle {
		maxIdle = maxConns
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          maxIdle,
		MaxIdleConnsPerHost:   perHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
