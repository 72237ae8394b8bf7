package stream

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Manager tracks live sessions by ID. Safe for concurrent use.
type Manager struct {
	pipeline Pipeline

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager whose sessions share pipeline.
func NewManager(pipeline Pipeline) *Manager {
	return &Manager{
		pipeline: pipeline.withDefaults(),
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with a generated ID. The session worker
// runs until [Session.End] or ctx cancellation.
func (m *Manager) Create(ctx context.Context) *Session {
	s := newSession(ctx, uuid.NewString(), m.pipeline)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.pipeline.Metrics.ActiveSessions.Add(ctx, 1)
	return s
}

// Get returns the session with the given ID, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Remove forgets a finished session. Idempotent.
func (m *Manager) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	_, present := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if present {
		m.pipeline.Metrics.ActiveSessions.Add(ctx, -1)
	}
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
