// Package httpserver builds the portal's HTTP server with timeouts suited to
// its traffic: small JSON requests plus multipart license uploads.
package httpserver

import (
	"net/http"
	"time"
)

// New wraps the router in an http.Server. ReadHeaderTimeout guards against
// slowloris clients; the generous idle timeout keeps the frontend's
// keep-alive connections warm between wizard steps.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
