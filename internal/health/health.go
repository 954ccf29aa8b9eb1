// Package health tracks per-component readiness for the application's
// /readyz endpoint.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
)

const (
	// OverallReady is the key for the overall readiness status.
	OverallReady = "overall"
	// ComponentReady is the value indicating that a component is ready.
	ComponentReady = "ok"
	// ComponentNotReady is the value indicating that a component is not ready.
	ComponentNotReady = "not-ready"
)

// Health represents the application's health.
type Health struct {
	mu    sync.Mutex
	ready map[string]bool
}

// NewHealth returns a *Health.
func NewHealth() *Health {
	return &Health{
		ready: make(map[string]bool),
	}
}

// NewSingleReadinessHealth returns a *Health waiting on one component.
func NewSingleReadinessHealth(component string) *Health {
	h := NewHealth()
	h.AddReadiness(component)

	return h
}

// AddReadiness registers a component the readiness check waits for.
// Ensure OnReady is called for each call to AddReadiness.
func (o *Health) AddReadiness(component string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.ready[component] = false
}

// OnReady marks a component as ready.
func (o *Health) OnReady(component string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.ready[component] = true
}

// IsReady returns true once every registered component is ready.
func (o *Health) IsReady() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, ready := range o.ready {
		if !ready {
			return false
		}
	}

	return true
}

func (o *Health) statusMap() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()

	smap := make(map[string]string, len(o.ready)+1)
	overall := ComponentReady

	for component, ready := range o.ready {
		if ready {
			smap[component] = ComponentReady
			continue
		}

		smap[component] = ComponentNotReady
		overall = ComponentNotReady
	}

	smap[OverallReady] = overall

	return smap
}

func (o *Health) readyzHandler(w http.ResponseWriter, _ *http.Request) {
	status := o.statusMap()

	if status[OverallReady] == ComponentReady {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	_ = json.NewEncoder(w).Encode(status)
}

// ReadyzHandler returns the HTTP handler backing /readyz.
func (o *Health) ReadyzHandler() http.Handler {
	return http.HandlerFunc(o.readyzHandler)
}
