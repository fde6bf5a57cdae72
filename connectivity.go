package menugate

import (
	"sync"
	"sync/atomic"
)

// Monitor tracks online/offline transitions. It is a non-blocking gate the
// gateway consults synchronously before every network attempt; no operation
// ever blocks on it.
type Monitor struct {
	offline atomic.Bool

	mu          sync.Mutex
	onReconnect func()
}

// NewMonitor creates a [Monitor] that starts online.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// IsOnline reports the last known connectivity state.
func (m *Monitor) IsOnline() bool {
	if m == nil {
		return true
	}
	return !m.offline.Load()
}

// SetOnline records a platform connectivity transition. An offline→online
// flip fires the reconnect hook exactly once per flip, on its own goroutine
// so the caller never blocks.
func (m *Monitor) SetOnline(online bool) {
	if m == nil {
		return
	}

	if !online {
		m.offline.Store(true)
		return
	}

	// CompareAndSwap makes concurrent duplicate "online" reports fire the
	// hook at most once per actual flip.
	if !m.offline.CompareAndSwap(true, false) {
		return
	}

	m.mu.Lock()
	hook := m.onReconnect
	m.mu.Unlock()

	if hook != nil {
		go hook()
	}
}

// setReconnectHook registers the function fired on each offline→online flip.
// The builder wires this to the pending queue's flush.
func (m *Monitor) setReconnectHook(fn func()) {
	m.mu.Lock()
	m.onReconnect = fn
	m.mu.Unlock()
}
