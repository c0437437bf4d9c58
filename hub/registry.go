package hub

import (
	"sync"

	"github.com/Mahendra2603/Robot-Simulator-Project/domain"
)

// Registry is the set of currently connected peers, keyed by peer ID.
// Only the hub loop mutates it; Snapshot may be called from any goroutine.
type Registry struct {
	peers map[string]domain.Peer
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]domain.Peer)}
}

// Add reports whether the peer was newly added.
func (r *Registry) Add(peer domain.Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.peers[peer.ID()]; exists {
		return false
	}
	r.peers[peer.ID()] = peer
	return true
}

// Remove reports whether the peer was present. Removing a different peer
// that happens to share an ID is a no-op.
func (r *Registry) Remove(peer domain.Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.peers[peer.ID()]
	if !exists || current != peer {
		return false
	}
	delete(r.peers, peer.ID())
	return true
}

func (r *Registry) Has(peer domain.Peer) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	current, exists := r.peers[peer.ID()]
	return exists && current == peer
}

// Snapshot returns a copy of the membership at call time.
func (r *Registry) Snapshot() []domain.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peers := make([]domain.Peer, 0, len(r.peers))
	for _, p := range r.peers {
		peers = append(peers, p)
	}
	return peers
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
