package taskstore

import "sync"

// Manager hands out one Store per owner, so every authenticated user
// works against their own cached collection.
type Manager struct {
	gw Gateway

	mu     sync.Mutex
	stores map[string]*Store
}

func NewManager(gw Gateway) *Manager {
	return &Manager{
		gw:     gw,
		stores: make(map[string]*Store),
	}
}

func (m *Manager) For(ownerID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[ownerID]
	if !ok {
		s = New(m.gw, ownerID)
		m.stores[ownerID] = s
	}
	return s
}

// MarkAllStale flags every store for reload, used when the underlying
// documents change out of band.
func (m *Manager) MarkAllStale() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stores {
		s.MarkStale()
	}
}
