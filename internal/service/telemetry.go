package service

import (
	"errors"
	"time"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts engine commands and store retries.
type Metrics struct {
	commands *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  prometheus.Counter
	expiries *prometheus.CounterVec
}

// NewMetrics registers the engine collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "commands_total",
			Help:      "Engine commands by operation and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trivia",
			Name:      "command_duration_seconds",
			Help:      "Engine command latency, retries included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "store_retries_total",
			Help:      "Transaction bodies re-run after a conflict.",
		}),
		expiries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "countdown_expiries_total",
			Help:      "Countdown expiry reports by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.commands, m.duration, m.retries, m.expiries)
	return m
}

// Retry is a store retry hook.
func (m *Metrics) Retry(int) {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *Metrics) observe(op string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(op, outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) expiry(applied bool) {
	if m == nil {
		return
	}
	result := "duplicate"
	if applied {
		result = "applied"
	}
	m.expiries.WithLabelValues(result).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsPrecondition(err):
		return "precondition"
	case domain.IsInvalidAction(err):
		return "invalid_action"
	case domain.IsIllegalChoice(err):
		return "illegal_choice"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// isDomainError reports failures caused by the request rather than the
// server.
func isDomainError(err error) bool {
	return outcome(err) != "error"
}
