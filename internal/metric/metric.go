// Package metric exposes controller state as prometheus collectors.
package metric

import (
	"net/http"
	"time"

	"fermenstation/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fermenstation"

var modes = []models.NetworkMode{
	models.ModeDisconnected, models.ModeConnecting, models.ModeStation, models.ModeAccessPoint,
}

type Metric struct {
	registry *prometheus.Registry

	temperature  *prometheus.GaugeVec
	relay        *prometheus.GaugeVec
	networkMode  *prometheus.GaugeVec
	failures     prometheus.Gauge
	cycles       *prometheus.CounterVec
	errorCounter *prometheus.CounterVec
	rpcTiming    *prometheus.SummaryVec
}

// New registers the collectors on a private registry.
func New() *Metric {
	m := &Metric{
		registry: prometheus.NewRegistry(),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last probe reading, -127 when the probe is disconnected.",
		}, []string{"sensor"}),
		relay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_on",
			Help:      "Commanded relay output (1 on, 0 off).",
		}, []string{"relay"}),
		networkMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "network_mode",
			Help:      "1 for the current connectivity mode.",
		}, []string{"mode"}),
		failures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_failures",
			Help:      "Consecutive connection failures.",
		}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_cycles_total",
			Help:      "Control cycles by decision path.",
		}, []string{"path"}),
		errorCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by source.",
		}, []string{"source"}),
		rpcTiming: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Backend RPC latency.",
		}, []string{"rpc"}),
	}
	m.registry.MustRegister(
		m.temperature, m.relay, m.networkMode, m.failures,
		m.cycles, m.errorCounter, m.rpcTiming,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metric) ObserveReadings(r models.SensorReadings) {
	for _, id := range models.AllSensors {
		m.temperature.WithLabelValues(string(id)).Set(r.Get(id))
	}
}

func (m *Metric) ObserveRelays(s models.RelayState) {
	for _, r := range models.AllRelays {
		v := 0.0
		if s.Get(r) {
			v = 1
		}
		m.relay.WithLabelValues(string(r)).Set(v)
	}
}

func (m *Metric) ObserveNetwork(st models.NetworkStatus) {
	for _, mode := range modes {
		v := 0.0
		if mode == st.Mode {
			v = 1
		}
		m.networkMode.WithLabelValues(string(mode)).Set(v)
	}
	m.failures.Set(float64(st.Health.Failures))
}

func (m *Metric) Cycle(path models.ControlPath) {
	m.cycles.WithLabelValues(string(path)).Inc()
}

func (m *Metric) ErrorCounter(source string) {
	m.errorCounter.WithLabelValues(source).Inc()
}

func (m *Metric) Timing(start time.Time, rpc string) {
	m.rpcTiming.WithLabelValues(rpc).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the prometheus text format.
func (m *Metric) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
