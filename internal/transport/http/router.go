// Package httptransport assembles the public HTTP surface: the /api routes,
// the Prometheus endpoint and the shared middleware chain.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "medilink/internal/auth/handler"
	doctorhandler "medilink/internal/doctor/handler"
	"medilink/internal/health"
	patienthandler "medilink/internal/patient/handler"
	"medilink/internal/platform/middleware"
	reghandler "medilink/internal/registration/handler"
)

// Deps carries the handlers the router mounts.
type Deps struct {
	Logger       *slog.Logger
	Auth         *authhandler.Handler
	Patients     *patienthandler.Handler
	Doctors      *doctorhandler.Handler
	Registration *reghandler.Handler
	Health       *health.Handler
}

// NewRouter builds the full application router.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)

	r.Route("/api", func(api chi.Router) {
		deps.Health.Register(api)
		deps.Auth.Register(api)
		deps.Patients.Register(api)
		deps.Doctors.Register(api)
		deps.Registration.Register(api)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
