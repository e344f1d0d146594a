package session

import (
	"fmt"
	"slices"
	"sync"
)

// Manager tracks every active session by id.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Add registers s.
//
// Postcondition: Returns an error if a session with the same id is already registered.
func (m *Manager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID()]; exists {
		return fmt.Errorf("session %q already connected", s.ID())
	}
	m.sessions[s.ID()] = s
	return nil
}

// Remove unregisters and closes the session id.
//
// Postcondition: Returns an error if id is not registered.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("session %q not found", id)
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	s.Close()
	return nil
}

// Get returns the session registered under id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// IDs returns the registered session ids in ascending order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes and unregisters every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
