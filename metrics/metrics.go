// Package metrics provides Prometheus instrumentation for flash message
// traffic: request counts per route and how many messages were pushed,
// consumed and left pending.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/goflash/flash-messages"
	"github.com/goflash/flash-messages/messages"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a dedicated registry so several apps, or tests, can run in one
// process without colliding on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts handled requests by method, route and status.
	RequestsTotal *prometheus.CounterVec
	// MessagesPushed counts messages appended to any queue.
	MessagesPushed prometheus.Counter
	// MessagesConsumed counts messages handed out by Consume.
	MessagesConsumed prometheus.Counter
	// MessagesPending tracks messages written back to sessions and not yet
	// consumed. Records that expire in the store are not subtracted.
	MessagesPending prometheus.Gauge
}

// New creates the collectors and registers them, with the Go runtime and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flash_http_requests_total",
			Help: "Total number of HTTP requests handled",
		}, []string{"method", "route", "status"}),
		MessagesPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flash_messages_pushed_total",
			Help: "Total number of flash messages queued",
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flash_messages_consumed_total",
			Help: "Total number of flash messages read and removed",
		}),
		MessagesPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flash_messages_pending",
			Help: "Current number of flash messages stored in sessions",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.MessagesPushed,
		m.MessagesConsumed,
		m.MessagesPending,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts every request passing through it, including requests
// whose handler panics; the panic is counted as a 500 and re-raised. Unmatched
// routes are handled by the router and never reach it.
func (m *Metrics) Middleware() flash.Middleware {
	return func(next flash.Handler) flash.Handler {
		return func(c flash.Ctx) (err error) {
			panicked := true
			defer func() {
				status := c.StatusCode()
				if status == 0 {
					status = http.StatusOK
					if err != nil || panicked {
						status = http.StatusInternalServerError
					}
				}
				m.RequestsTotal.WithLabelValues(c.Method(), c.Route(), strconv.Itoa(status)).Inc()
			}()
			err = next(c)
			panicked = false
			return err
		}
	}
}

// ObserveFlush records one queue flush. It matches messages.ManagerConfig.OnFlush.
// The pending gauge only moves when the session was saved: a failed save
// leaves the stored queue as it was.
func (m *Metrics) ObserveFlush(_ flash.Ctx, st messages.FlushStats) {
	m.MessagesPushed.Add(float64(st.Pushed))
	m.MessagesConsumed.Add(float64(st.Consumed))
	if st.Persisted {
		m.MessagesPending.Add(float64(st.Remaining - st.Loaded))
	}
}
