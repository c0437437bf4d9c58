package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Mahendra2603/Robot-Simulator-Project/domain"
	"github.com/Mahendra2603/Robot-Simulator-Project/metrics"
)

var ErrNoPeers = errors.New("no peers connected")

// Broadcaster fans one command out to every peer in a registry snapshot.
type Broadcaster struct {
	peers      domain.Snapshotter
	dispatcher domain.Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewBroadcaster(peers domain.Snapshotter, dispatcher domain.Dispatcher, logger *slog.Logger, m *metrics.Metrics) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{peers: peers, dispatcher: dispatcher, logger: logger, metrics: m}
}

// Broadcast returns the number of peers the command was dispatched to.
// It fails only when the snapshot is empty; what happens to each individual
// send is not its concern.
func (b *Broadcaster) Broadcast(cmd domain.Command) (int, error) {
	peers := b.peers.Snapshot()
	if len(peers) == 0 {
		b.metrics.Broadcast(string(cmd.Kind), false)
		return 0, ErrNoPeers
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return 0, fmt.Errorf("marshal %s command: %w", cmd.Kind, err)
	}

	b.logger.Info("broadcasting command", "command", string(payload), "peers", len(peers))
	for _, p := range peers {
		b.dispatcher.Dispatch(p, payload)
	}
	b.metrics.Broadcast(string(cmd.Kind), true)
	return len(peers), nil
}
