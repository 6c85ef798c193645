// Package httputil holds the single tuned HTTP client shared by the
// Bedrock invocation path and the image resolver.
package httputil

import (
	"net/http"
	"time"
)

// DefaultHTTPClient is a shared HTTP client with sensible pooling defaults
// for a process that makes many outbound calls to a small number of hosts:
// the regional bedrock-runtime endpoint, plus whatever hosts client-supplied
// image URLs happen to point at.
var DefaultHTTPClient = &http.Client{
	Timeout: 60 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}
