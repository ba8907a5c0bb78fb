// Package metrics exposes Prometheus counters and gauges for the guacd
// bridge daemon, following balookrd-h3ws2h1ws-proxy's
// internal/metrics/metrics.go shape: package-level vars registered once in
// init().
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "guacd_active_connections",
		Help: "Number of live connections currently registered",
	})
	Connects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guacd_connects_total",
		Help: "Successful connect handshakes",
	})
	Resumes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guacd_resumes_total",
		Help: "Successful resume handoffs",
	})
	HandshakeRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guacd_handshake_rejections_total",
		Help: "Rejected handshakes by reason",
	}, []string{"reason"})
	InstructionsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guacd_instructions_dispatched_total",
		Help: "Inbound instructions dispatched by opcode",
	}, []string{"opcode"})
	Errors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guacd_errors_total",
		Help: "Errors by stage",
	}, []string{"stage"})
	BytesOut = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guacd_bytes_out_total",
		Help: "Bytes flushed to display-protocol streams",
	})
)

func init() {
	prometheus.MustRegister(
		ActiveConnections, Connects, Resumes, HandshakeRejections,
		InstructionsDispatched, Errors, BytesOut,
	)
}
