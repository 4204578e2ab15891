package player

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("playback session not found")

// Manager tracks the live playback sessions by ID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	reporter ProgressReporter
	opts     []Option
}

// NewManager creates a session registry. The reporter and options apply to
// every session it opens.
func NewManager(reporter ProgressReporter, opts ...Option) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		reporter: reporter,
		opts:     opts,
	}
}

// Open creates a new session for a title and registers it.
func (m *Manager) Open(contentID string, initialProgress float64) (*Session, error) {
	session, err := NewSession(uuid.NewString(), contentID, initialProgress, m.reporter, m.opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	return session, nil
}

// Get returns a registered session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close tears down a session and forgets it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	return session.Close()
}

// CloseAll tears down every live session, used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
