// Package metrics collects and exposes Prometheus metrics for the auth
// service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface used by HTTP handlers to record auth events.
type Recorder interface {
	RecordRegistration(result string)
	RecordLogin(result string)
	RecordRefresh(result string)
}

// Collector is the Prometheus-backed Recorder implementation.
type Collector struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
}

// Result labels for auth events.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

// NewCollector creates a Collector and registers its metrics with the
// given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authsvc_registrations_total",
			Help: "Total registration attempts by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authsvc_logins_total",
			Help: "Total login attempts by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authsvc_token_refreshes_total",
			Help: "Total token refresh attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(c.registrations, c.logins, c.refreshes)
	return c
}

func (c *Collector) RecordRegistration(result string) {
	c.registrations.WithLabelValues(result).Inc()
}

func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordRefresh(result string) {
	c.refreshes.WithLabelValues(result).Inc()
}

// Handler returns the HTTP handler serving the metrics endpoint for the
// given registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
