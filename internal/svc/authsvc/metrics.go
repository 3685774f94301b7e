package authsvc

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkrupp/jwtauth/internal/domain"
)

const (
	TokenKindLogin   = "login"
	TokenKindRefresh = "refresh"
)

// Metrics holds Prometheus collectors for authentication attempts and token issuance.
type Metrics struct {
	attemptsTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	tokensIssued  *prometheus.CounterVec
}

// NewMetrics creates Metrics and registers them with registerer. A nil
// registerer falls back to prometheus.DefaultRegisterer. Calling it twice
// with the same registerer yields Metrics backed by the same collectors.
func NewMetrics(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "jwtauth"
	}

	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		attemptsTotal: register(registerer, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "attempts_total",
				Help:      "Authentication attempts by strategy, outcome and reason.",
			},
			[]string{"strategy", "outcome", "reason"},
		)),
		duration: register(registerer, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "duration_seconds",
				Help:      "Time spent authenticating a request.",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"strategy"},
		)),
		tokensIssued: register(registerer, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "tokens_issued_total",
				Help:      "Tokens issued by kind.",
			},
			[]string{"kind"},
		)),
	}
}

// register adds c to registerer. When an identical collector is already
// registered, that one is returned so every Metrics on a registry shares
// the collectors being scraped. Any other registration error panics, as
// MustRegister would.
func register[C prometheus.Collector](registerer prometheus.Registerer, c C) C {
	err := registerer.Register(c)
	if err == nil {
		return c
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing
		}
	}

	panic(err)
}

// ObserveAuth records one authentication attempt.
func (m *Metrics) ObserveAuth(strategy string, result domain.AuthResult, elapsed time.Duration) {
	m.attemptsTotal.WithLabelValues(strategy, result.Outcome.String(), ReasonLabel(result)).Inc()
	m.duration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// ObserveIssued records an issued token of the given kind.
func (m *Metrics) ObserveIssued(kind string) {
	m.tokensIssued.WithLabelValues(kind).Inc()
}

// ReasonLabel maps a result to a bounded label value.
func ReasonLabel(result domain.AuthResult) string {
	err := result.Err()

	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrNoCredentials), errors.Is(err, domain.ErrNoAuthToken):
		return "missing"
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, domain.ErrTokenAlgorithmMismatch):
		return "algorithm_mismatch"
	case errors.Is(err, domain.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "other"
	}
}
