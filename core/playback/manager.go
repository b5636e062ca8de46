package playback

import (
	"sync"

	"github.com/google/uuid"
)

// Manager owns the playback sessions of currently rendered views, keyed by
// session ID. A session is created when a view mounts and closed when it
// unmounts; closing releases every media handle the session created.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create registers a new session and returns its ID.
func (m *Manager) Create(open Opener) (string, *Session) {
	id := uuid.NewString()
	session := NewSession(open)

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	return id, session
}

// Get looks a session up by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	return session, ok
}

// Close tears one session down. Closing an unknown ID is a no-op.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		session.Close()
	}
}

// CloseAll tears every session down, for server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, session := range m.sessions {
		sessions = append(sessions, session)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
