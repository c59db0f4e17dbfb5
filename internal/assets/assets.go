// Package assets handles mesh loading and caching.
package assets

import (
	"fmt"
	"sync"

	"github.com/Faultbox/carve/pkg/mesh"
)

// Manager loads meshes from disk and caches them by URI. A second Load of
// the same URI returns the same instance, so callers must treat cached
// meshes as immutable and work on copies when they need to mutate.
type Manager struct {
	meshes map[string]*mesh.HalfedgeMesh
	mu     sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewManager creates a new mesh manager.
func NewManager() *Manager {
	return &Manager{
		meshes: make(map[string]*mesh.HalfedgeMesh),
	}
}

// Load returns the mesh stored at uri, loading it on first use.
func (m *Manager) Load(uri string) (*mesh.HalfedgeMesh, error) {
	m.mu.RLock()
	cached, ok := m.meshes[uri]
	m.mu.RUnlock()

	if ok {
		m.mu.Lock()
		m.hits++
		m.mu.Unlock()
		return cached, nil
	}

	loaded, err := mesh.FromFile(uri)
	if err != nil {
		return nil, fmt.Errorf("loading mesh %s: %w", uri, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.misses++
	if cached, ok := m.meshes[uri]; ok {
		// Lost a concurrent load of the same URI; hand out the instance
		// that is already shared.
		return cached, nil
	}
	m.meshes[uri] = loaded
	return loaded, nil
}

// Clear drops all cached meshes and resets the statistics.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.meshes = make(map[string]*mesh.HalfedgeMesh)
	m.hits = 0
	m.misses = 0
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits, m.misses
}
