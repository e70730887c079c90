package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aaquinonez01/whatsapp-service/internal/state"
)

var statuses = []state.Status{
	state.StatusConnected,
	state.StatusConnecting,
	state.StatusDisconnected,
	state.StatusError,
}

type metrics struct {
	registry      *prometheus.Registry
	sendRequests  *prometheus.CounterVec
	connected     prometheus.Gauge
	status        *prometheus.GaugeVec
	streamClients prometheus.Gauge
}

func newMetrics(enabled bool) *metrics {
	if !enabled {
		return nil
	}
	reg := prometheus.NewRegistry()
	m := &metrics{
		registry: reg,
		sendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whatsapp_service",
			Name:      "send_requests_total",
			Help:      "Send-message requests by outcome.",
		}, []string{"outcome"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "whatsapp_service",
			Name:      "connected",
			Help:      "1 when the WhatsApp client is connected and ready.",
		}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "whatsapp_service",
			Name:      "connection_status",
			Help:      "Current connection status, 1 for the active status.",
		}, []string{"status"}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "whatsapp_service",
			Name:      "status_stream_clients",
			Help:      "Number of open status stream WebSockets.",
		}),
	}

	reg.MustRegister(m.sendRequests, m.connected, m.status, m.streamClients)
	return m
}

func (m *metrics) handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) incrSend(outcome string) {
	if m != nil {
		m.sendRequests.WithLabelValues(outcome).Inc()
	}
}

func (m *metrics) observeStatus(s state.Snapshot) {
	if m == nil {
		return
	}
	if s.IsConnected {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
	for _, st := range statuses {
		v := 0.0
		if st == s.Status {
			v = 1
		}
		m.status.WithLabelValues(string(st)).Set(v)
	}
}

func (m *metrics) incStreamClients() {
	if m != nil {
		m.streamClients.Inc()
	}
}

func (m *metrics) decStreamClients() {
	if m != nil {
		m.streamClients.Dec()
	}
}
