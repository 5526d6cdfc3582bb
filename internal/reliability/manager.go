package reliability

import (
	"sync"
	"time"
)

// Manager owns one ClientState per connected client behind a dedicated
// mutex, deliberately separate from the transport's client-registry mutex.
// Lock ordering throughout the server is: registry mutex before reliability
// mutex, never the reverse, and the reliability mutex is never held across
// a blocking I/O call.
type Manager struct {
	mu      sync.Mutex
	clients map[uint32]*ClientState
}

func NewManager() *Manager {
	return &Manager{clients: make(map[uint32]*ClientState)}
}

// Client returns the reliability state for clientID, creating it on first
// use. The caller must not retain the returned pointer across a call that
// might run Forget for the same client concurrently — callers should only
// ever be the single net-task goroutine and the retry worker, both of which
// take Manager's lock for the duration of their access.
func (m *Manager) Client(clientID uint32) *ClientState {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.clients[clientID]
	if !ok {
		cs = NewClientState()
		m.clients[clientID] = cs
	}
	return cs
}

// Forget drops all reliability state for a disconnected or evicted client.
func (m *Manager) Forget(clientID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, clientID)
}

// ClientIDs returns a snapshot of currently tracked client IDs, used by the
// retry worker to iterate without holding the lock for the whole sweep.
func (m *Manager) ClientIDs() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint32, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	return ids
}

// WithClient runs fn with the named client's state locked for its duration.
func (m *Manager) WithClient(clientID uint32, fn func(*ClientState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.clients[clientID]
	if !ok {
		cs = NewClientState()
		m.clients[clientID] = cs
	}
	fn(cs)
}

// RunRetryWorker ticks at the given interval (~20 Hz, i.e. 50ms, matches the
// original's dedicated retry thread) until ctx-like stop fires, resending
// due packets via send and forgetting clients whose retries are exhausted.
func (m *Manager) RunRetryWorker(interval time.Duration, stop <-chan struct{}, send func(clientID uint32, pkt OutPacket), onExhausted func(clientID uint32)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			for _, id := range m.ClientIDs() {
				var toResend []OutPacket
				var exhausted bool
				m.WithClient(id, func(cs *ClientState) {
					toResend, exhausted = cs.DueRetries(now)
					cs.CleanupReorderBuffer(now)
					cs.CleanupDuplicateCache(now)
				})
				for _, pkt := range toResend {
					send(id, pkt)
				}
				if exhausted {
					onExhausted(id)
				}
			}
		}
	}
}
