// Package health exposes the liveness endpoint the portal frontend
// pre-flights before login, plus dependency pings for readiness probes.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medilink/pkg/platform/httputil"
)

// Pinger checks one dependency. Implementations must respect ctx deadlines.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// Handler serves /health and /ready.
type Handler struct {
	pingers []Pinger
	now     func() time.Time
}

func New(pingers ...Pinger) *Handler {
	return &Handler{pingers: pingers, now: time.Now}
}

// WithClock overrides the reported time for tests.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Register mounts the health endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)
}

// HandleHealth handles GET /api/health. The response shape is what the login
// page's connectivity preflight expects.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "UP",
		"time":    h.now().UTC().Format(time.RFC3339),
		"message": "Server is running",
	})
}

// HandleReady handles GET /api/ready, pinging every configured dependency.
// Any failing dependency turns the response into a 503.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]string, len(h.pingers))
	status := http.StatusOK
	for _, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			deps[p.Name()] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[p.Name()] = "up"
	}

	overall := "UP"
	if status != http.StatusOK {
		overall = "DOWN"
	}
	httputil.WriteJSON(w, status, map[string]any{
		"status":       overall,
		"time":         h.now().UTC().Format(time.RFC3339),
		"dependencies": deps,
	})
}

// PingerFunc adapts a named function to the Pinger interface.
type PingerFunc struct {
	Dependency string
	Check      func(ctx context.Context) error
}

func (p PingerFunc) Name() string                   { return p.Dependency }
func (p PingerFunc) Ping(ctx context.Context) error { return p.Check(ctx) }
