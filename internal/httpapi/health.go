// v0
// internal/httpapi/health.go
package httpapi

import "sync"

// HealthState tracks readiness for the HTTP API. Liveness is always true
// while the process runs; readiness toggles around startup and shutdown.
type HealthState struct {
	mu    sync.RWMutex
	ready bool
}

// NewHealthState constructs the tracker with readiness false so orchestration
// layers can observe when the service is ready to receive traffic.
func NewHealthState() *HealthState {
	return &HealthState{}
}

// SetReady flips the readiness flag.
func (h *HealthState) SetReady(value bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = value
}

// Ready reports the current readiness flag.
func (h *HealthState) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}
