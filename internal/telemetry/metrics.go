// Package telemetry expõe métricas Prometheus do controlador e um pequeno
// servidor HTTP de saúde/estado.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sua-org/gopro-fleet/internal/camera"
	"github.com/sua-org/gopro-fleet/internal/core"
)

type Metrics struct {
	registry *prometheus.Registry

	recording     prometheus.Gauge
	transitions   *prometheus.CounterVec
	mismatches    *prometheus.CounterVec
	powerOn       *prometheus.CounterVec
	probeFailures *prometheus.CounterVec
	cardErrors    *prometheus.CounterVec
	healthPasses  prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recording: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gopro_fleet",
			Name:      "recording",
			Help:      "Last commanded fleet recording state (1 = recording).",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gopro_fleet",
			Name:      "transitions_total",
			Help:      "Trigger edges handled, by target state.",
		}, []string{"target"}),
		mismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gopro_fleet",
			Name:      "status_mismatches_total",
			Help:      "Health pass mismatches between desired and reported capture state.",
		}, []string{"camera"}),
		powerOn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gopro_fleet",
			Name:      "power_on_total",
			Help:      "Power on attempts by camera and result.",
		}, []string{"camera", "result"}),
		probeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gopro_fleet",
			Name:      "probe_failures_total",
			Help:      "Camera control probes without a usable reply, by error kind.",
		}, []string{"camera", "kind"}),
		cardErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gopro_fleet",
			Name:      "card_errors_total",
			Help:      "Card error conditions reported by cameras.",
		}, []string{"camera"}),
		healthPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gopro_fleet",
			Name:      "health_passes_total",
			Help:      "Periodic health passes run.",
		}),
	}
	m.registry.MustRegister(
		m.recording,
		m.transitions,
		m.mismatches,
		m.powerOn,
		m.probeFailures,
		m.cardErrors,
		m.healthPasses,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Transition(recording bool) {
	m.transitions.WithLabelValues(target(recording)).Inc()
	if recording {
		m.recording.Set(1)
	} else {
		m.recording.Set(0)
	}
}

func (m *Metrics) Mismatch(cam core.CameraIdentity) {
	m.mismatches.WithLabelValues(cam.SSID).Inc()
}

func (m *Metrics) HealthPass() { m.healthPasses.Inc() }

func (m *Metrics) PowerOnResult(cam core.CameraIdentity, r camera.Result) {
	m.powerOn.WithLabelValues(cam.SSID, r.String()).Inc()
}

func (m *Metrics) ProbeFailed(cam core.CameraIdentity, kind core.ErrorKind) {
	if kind == "" {
		kind = "other"
	}
	m.probeFailures.WithLabelValues(cam.SSID, string(kind)).Inc()
}

func (m *Metrics) CardError(cam core.CameraIdentity) {
	m.cardErrors.WithLabelValues(cam.SSID).Inc()
}

func target(recording bool) string {
	if recording {
		return "recording"
	}
	return "idle"
}
