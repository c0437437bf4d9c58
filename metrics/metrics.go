package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "simrelay"

// Metrics holds every collector the relay exports. A nil *Metrics is valid
// and records nothing, which keeps unit tests free of registry plumbing.
type Metrics struct {
	peers            prometheus.Gauge
	peerEvents       *prometheus.CounterVec
	dispatches       prometheus.Counter
	dispatchFailures prometheus.Counter
	dispatchDropped  prometheus.Counter
	broadcasts       *prometheus.CounterVec
	inboundFrames    prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		peers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "peers",
			Name:      "connected",
			Help:      "Peers currently registered.",
		}),
		peerEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "peers",
			Name:      "events_total",
			Help:      "Peer registry transitions.",
		}, []string{"event"}),
		dispatches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "attempts_total",
			Help:      "Dispatch tasks submitted to the peer loop.",
		}),
		dispatchFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "failures_total",
			Help:      "Dispatch tasks whose send failed inside the peer loop.",
		}),
		dispatchDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "dropped_total",
			Help:      "Dispatch tasks dropped because the peer or the loop was gone.",
		}),
		broadcasts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "total",
			Help:      "Broadcast calls by command kind and result.",
		}, []string{"command", "result"}),
		inboundFrames: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "peers",
			Name:      "inbound_frames_total",
			Help:      "Frames received from peers.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) PeerConnected() {
	if m == nil {
		return
	}
	m.peers.Inc()
	m.peerEvents.WithLabelValues("connected").Inc()
}

func (m *Metrics) PeerDisconnected() {
	if m == nil {
		return
	}
	m.peers.Dec()
	m.peerEvents.WithLabelValues("disconnected").Inc()
}

func (m *Metrics) DispatchAttempted() {
	if m == nil {
		return
	}
	m.dispatches.Inc()
}

func (m *Metrics) DispatchFailed() {
	if m == nil {
		return
	}
	m.dispatchFailures.Inc()
}

func (m *Metrics) DispatchDropped() {
	if m == nil {
		return
	}
	m.dispatchDropped.Inc()
}

func (m *Metrics) Broadcast(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "no_peers"
	}
	m.broadcasts.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) InboundFrame() {
	if m == nil {
		return
	}
	m.inboundFrames.Inc()
}

func (m *Metrics) HTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusLabel := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	m.httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
