package protocol

import (
	"log/slog"

	"github.com/Mahendra2603/Robot-Simulator-Project/domain"
	"github.com/Mahendra2603/Robot-Simulator-Project/metrics"
)

const maxLoggedFrame = 256

// Observer records frames sent by simulators. Peers have nothing to say
// to the relay, so frames are logged and counted but never acted upon.
type Observer struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObserver(logger *slog.Logger, m *metrics.Metrics) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{logger: logger, metrics: m}
}

func (o *Observer) Observe(peer domain.Peer, data []byte) {
	o.metrics.InboundFrame()

	text := string(data)
	truncated := false
	if len(text) > maxLoggedFrame {
		text = text[:maxLoggedFrame]
		truncated = true
	}
	o.logger.Debug("peer frame", "peerId", peer.ID(), "bytes", len(data), "frame", text, "truncated", truncated)
}
