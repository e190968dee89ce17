package httpserver

import (
	"context"
	"net/http"
	"time"
)

// drainTimeout bounds graceful shutdown. Login and registration hold
// bcrypt work per request, so drain longer than the slowest handler.
const drainTimeout = 10 * time.Second

// New builds an HTTP server with the timeouts this API wants. Handlers
// are short-lived JSON exchanges; anything slower than WriteTimeout is a
// stuck client or a stuck store.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// Shutdown drains in-flight requests, giving up after drainTimeout.
func Shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
