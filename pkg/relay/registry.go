// ABOUTME: Registry of connected peers
// ABOUTME: Ordered by arrival, with removal on disconnect
package relay

import (
	"slices"
	"sync"

	"github.com/Resonate-Protocol/resonate-relay/internal/transport"
)

// Peer is a connected remote endpoint
type Peer = transport.Conn

// Registry holds the live peer set in arrival order
type Registry struct {
	mu    sync.RWMutex
	peers []Peer
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a peer
func (r *Registry) Add(p Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers = append(r.peers, p)
}

// Remove drops the peer with the given id, reporting whether it was present
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.peers {
		if p.ID() == id {
			r.peers = slices.Delete(r.peers, i, i+1)
			return true
		}
	}
	return false
}

// ForEach calls fn for every peer in arrival order.
// fn runs under the read lock and must not call Add or Remove.
func (r *Registry) ForEach(fn func(Peer)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.peers {
		fn(p)
	}
}

// Len returns the number of peers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// IDs returns peer ids in arrival order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.peers))
	for i, p := range r.peers {
		ids[i] = p.ID()
	}
	return ids
}
