package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/grovert/zabbix-maintenance-assistant/internal/models"
)

// MemoryStore implements Store in process memory. Used when no REDIS_URL is
// configured, and by tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) LoadSession(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[userID]; ok {
		snapshot := *session
		return &snapshot, nil
	}
	return newSession(userID), nil
}

func (m *MemoryStore) AppendMessage(ctx context.Context, userID string, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.get(userID)
	session.Messages = append(session.Messages, msg)
	session.Metadata.LastActivity = time.Now()
	session.Metadata.MessageCount = len(session.Messages)
	if session.Metadata.MessageCount == 1 {
		session.Metadata.StartedAt = msg.Timestamp
	}
	return nil
}

func (m *MemoryStore) SetPending(ctx context.Context, userID string, req *models.ParsedMaintenanceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.get(userID)
	session.Pending = req
	session.Metadata.LastActivity = time.Now()
	return nil
}

func (m *MemoryStore) ClearPending(ctx context.Context, userID string) error {
	return m.SetPending(ctx, userID, nil)
}

func (m *MemoryStore) ClearSession(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *MemoryStore) get(userID string) *Session {
	if session, ok := m.sessions[userID]; ok {
		return session
	}
	session := newSession(userID)
	m.sessions[userID] = session
	return session
}
