package world

import "sync"

// Resolver exposes the world the client currently occupies.
// Mirror controllers consult it when establishing a subscription to decide
// which rows belong to the local caches.
type Resolver interface {
	// Current returns the client's current world coordinates.
	Current() Coords
}

// Static is a Resolver that always reports the same coordinates.
// Useful for tests and single-world tools.
type Static Coords

// Current returns the fixed coordinates.
func (s Static) Current() Coords { return Coords(s) }

// Manager tracks the client's current world and notifies observers when it
// changes. It is constructed by the session and injected into everything that
// needs scope information; there is no package-level instance.
type Manager struct {
	mu sync.RWMutex

	current Coords

	onChange []func(old, next Coords)
}

// NewManager creates a world manager starting at the given coordinates.
func NewManager(start Coords) *Manager {
	return &Manager{current: start}
}

// Current returns the current world coordinates.
func (m *Manager) Current() Coords {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Set updates the current world and invokes change observers.
// Setting the same coordinates again is a no-op and fires no observers.
func (m *Manager) Set(c Coords) {
	m.mu.Lock()
	old := m.current
	if old == c {
		m.mu.Unlock()
		return
	}
	m.current = c
	observers := make([]func(old, next Coords), len(m.onChange))
	copy(observers, m.onChange)
	m.mu.Unlock()

	for _, fn := range observers {
		fn(old, c)
	}
}

// OnChange registers an observer invoked after every world change.
// Observers run on the goroutine that called Set.
func (m *Manager) OnChange(fn func(old, next Coords)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// Compile-time interface satisfaction checks.
var (
	_ Resolver = Static{}
	_ Resolver = (*Manager)(nil)
)
