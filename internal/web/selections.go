package web

import (
	"sync"

	"github.com/taskdeck/taskdeck/internal/selection"
)

// selections keeps one selection set per owner. Selection is view
// state only; it never leaves the server process.
type selections struct {
	mu   sync.Mutex
	sets map[string]*selection.Set
}

func newSelections() *selections {
	return &selections{sets: make(map[string]*selection.Set)}
}

func (s *selections) For(ownerID string) *selection.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[ownerID]
	if !ok {
		set = selection.NewSet()
		s.sets[ownerID] = set
	}
	return set
}
