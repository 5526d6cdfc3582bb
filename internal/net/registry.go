package net

import (
	"net"
	"sync"
	"time"
)

// ClientID is a monotone identifier assigned to each endpoint on first
// contact, decoupling game-level identity from the transport's own
// *net.UDPAddr — grounded on the original UDPServer's client_id registry,
// which exists precisely so the rest of the server never has to compare or
// hash raw endpoints.
type ClientID uint32

type clientEntry struct {
	id         ClientID
	addr       *net.UDPAddr
	lastActive time.Time
}

// ClientRegistry maps UDP endpoints to ClientIDs and back, and tracks last
// activity for inactivity eviction. One mutex guards the whole registry;
// per-client reliability state lives behind reliability.Manager's own
// mutex, acquired only after this one (see internal/reliability.Manager's
// doc comment on lock ordering).
type ClientRegistry struct {
	mu        sync.Mutex
	byAddr    map[string]*clientEntry
	byID      map[ClientID]*clientEntry
	nextID    ClientID
}

func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		byAddr: make(map[string]*clientEntry),
		byID:   make(map[ClientID]*clientEntry),
		nextID: 1,
	}
}

// Register looks up the client for addr, creating one with a freshly
// allocated ID if this is the first packet seen from it. The returned bool
// reports whether a new client was created.
func (r *ClientRegistry) Register(addr *net.UDPAddr, now time.Time) (ClientID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := addr.String()
	if e, ok := r.byAddr[key]; ok {
		e.lastActive = now
		return e.id, false
	}

	id := r.nextID
	r.nextID++
	e := &clientEntry{id: id, addr: addr, lastActive: now}
	r.byAddr[key] = e
	r.byID[id] = e
	return id, true
}

// Touch updates a known client's last-activity timestamp.
func (r *ClientRegistry) Touch(id ClientID, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byID[id]; ok {
		e.lastActive = now
	}
}

// Endpoint resolves a ClientID back to its UDP endpoint.
func (r *ClientRegistry) Endpoint(id ClientID) (*net.UDPAddr, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return e.addr, true
}

// Remove drops a client from the registry (called on graceful disconnect or
// after eviction).
func (r *ClientRegistry) Remove(id ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	delete(r.byAddr, e.addr.String())
}

// EvictInactive removes and returns every client whose last activity is
// older than timeout.
func (r *ClientRegistry) EvictInactive(timeout time.Duration, now time.Time) []ClientID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []ClientID
	for id, e := range r.byID {
		if now.Sub(e.lastActive) >= timeout {
			evicted = append(evicted, id)
			delete(r.byID, id)
			delete(r.byAddr, e.addr.String())
		}
	}
	return evicted
}

// IDs returns a snapshot of all currently registered client IDs.
func (r *ClientRegistry) IDs() []ClientID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]ClientID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids
}

func (r *ClientRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
