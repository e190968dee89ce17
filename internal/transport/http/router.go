// Package httptransport is the thin HTTP layer. Handlers delegate to
// domain services without embedding business logic so transport concerns
// stay isolated.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alumnet/internal/auth/guard"
)

// Handlers groups the per-domain handler sets the router wires.
type Handlers struct {
	Auth     *AuthHandler
	College  *CollegeHandler
	Referral *ReferralHandler
	Job      *JobHandler
}

// NewRouter wires all public endpoints.
func NewRouter(h Handlers, g *guard.Guard) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestScope)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h.Auth.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(g))
		h.Auth.RegisterAuthenticated(r)
		h.College.Register(r)
		h.Referral.Register(r)
		h.Job.Register(r)
	})

	return r
}
