package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RegistrationsTotal *prometheus.CounterVec
	LoginsTotal        *prometheus.CounterVec
	OTPCodesSent       prometheus.Counter
	OTPConfirmations   *prometheus.CounterVec
	WizardSubmissions  *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewFor(prometheus.DefaultRegisterer)
}

// NewFor registers the metrics on reg. Tests pass a fresh registry so
// repeated construction does not trip duplicate registration.
func NewFor(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medilink_registrations_total",
			Help: "Completed account registrations by actor type.",
		}, []string{"actor"}),
		LoginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medilink_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		OTPCodesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "medilink_otp_codes_sent_total",
			Help: "Verification codes dispatched to phone numbers.",
		}),
		OTPConfirmations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medilink_otp_confirmations_total",
			Help: "OTP confirmation attempts by outcome.",
		}, []string{"outcome"}),
		WizardSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medilink_wizard_submissions_total",
			Help: "Final wizard submissions by actor and outcome.",
		}, []string{"actor", "outcome"}),
	}
}
