package hub

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Mahendra2603/Robot-Simulator-Project/domain"
	"github.com/Mahendra2603/Robot-Simulator-Project/metrics"
)

const defaultQueueSize = 1024

var ErrStopped = errors.New("hub stopped")

type membership struct {
	peer    domain.Peer
	applied chan struct{}
}

type dispatchTask struct {
	peer    domain.Peer
	payload []byte
}

// Hub runs the single loop that owns the peer registry. Registry changes
// and peer sends all happen on that loop; other goroutines reach it only
// through Register, Unregister and Dispatch.
type Hub struct {
	registry   *Registry
	register   chan membership
	unregister chan membership
	tasks      chan dispatchTask
	done       chan struct{}
	exited     chan struct{}
	logger     *slog.Logger
	metrics    *metrics.Metrics
	queueSize  int
}

type Option func(*Hub)

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithQueueSize bounds the number of dispatch tasks waiting for the loop.
func WithQueueSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

func New(opts ...Option) *Hub {
	h := &Hub{
		registry:  NewRegistry(),
		logger:    slog.Default(),
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.register = make(chan membership)
	h.unregister = make(chan membership)
	h.tasks = make(chan dispatchTask, h.queueSize)
	h.done = make(chan struct{})
	h.exited = make(chan struct{})
	return h
}

// Run serves the loop until ctx is cancelled, then closes every remaining peer.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.exited)
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-h.register:
			h.add(m.peer)
			close(m.applied)
		case m := <-h.unregister:
			h.remove(m.peer)
			close(m.applied)
		case t := <-h.tasks:
			h.send(t)
		}
	}
}

// Exited is closed once Run has returned and all peers are closed.
func (h *Hub) Exited() <-chan struct{} {
	return h.exited
}

// Register blocks until the loop has added the peer, so a broadcast issued
// afterwards is guaranteed to include it.
func (h *Hub) Register(peer domain.Peer) error {
	m := membership{peer: peer, applied: make(chan struct{})}
	select {
	case h.register <- m:
	case <-h.done:
		return ErrStopped
	}
	<-m.applied
	return nil
}

// Unregister blocks until the loop has removed the peer. Unregistering a
// peer that is not a member is a no-op.
func (h *Hub) Unregister(peer domain.Peer) {
	m := membership{peer: peer, applied: make(chan struct{})}
	select {
	case h.unregister <- m:
		<-m.applied
	case <-h.done:
	}
}

// Dispatch hands the payload to the loop and returns without waiting for the
// send. Failures are handled on the loop and never reported to the caller.
func (h *Hub) Dispatch(peer domain.Peer, payload []byte) {
	h.metrics.DispatchAttempted()
	select {
	case <-h.done:
		h.metrics.DispatchDropped()
		return
	default:
	}
	select {
	case h.tasks <- dispatchTask{peer: peer, payload: payload}:
	case <-h.done:
		h.metrics.DispatchDropped()
		h.logger.Debug("dispatch dropped, hub stopped", "peerId", peer.ID())
	}
}

func (h *Hub) Snapshot() []domain.Peer {
	return h.registry.Snapshot()
}

func (h *Hub) Stats() (peers int) {
	return h.registry.Len()
}

func (h *Hub) add(peer domain.Peer) bool {
	if !h.registry.Add(peer) {
		return false
	}
	h.metrics.PeerConnected()
	h.logger.Info("peer connected", "peerId", peer.ID(), "peers", h.registry.Len())
	return true
}

func (h *Hub) remove(peer domain.Peer) bool {
	if !h.registry.Remove(peer) {
		return false
	}
	h.metrics.PeerDisconnected()
	h.logger.Info("peer disconnected", "peerId", peer.ID(), "peers", h.registry.Len())
	return true
}

func (h *Hub) send(t dispatchTask) {
	if !h.registry.Has(t.peer) {
		h.metrics.DispatchDropped()
		h.logger.Debug("dispatch dropped, peer gone", "peerId", t.peer.ID())
		return
	}

	if err := t.peer.Send(t.payload); err != nil {
		h.metrics.DispatchFailed()
		h.logger.Warn("send failed", "peerId", t.peer.ID(), "error", err)
		h.remove(t.peer)
		if err := t.peer.Close(); err != nil {
			h.logger.Debug("close after failed send", "peerId", t.peer.ID(), "error", err)
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)

drain:
	for {
		select {
		case <-h.tasks:
			h.metrics.DispatchDropped()
		default:
			break drain
		}
	}

	for _, peer := range h.registry.Snapshot() {
		h.remove(peer)
		if err := peer.Close(); err != nil {
			h.logger.Debug("close on shutdown", "peerId", peer.ID(), "error", err)
		}
	}
	h.logger.Info("hub stopped")
}
