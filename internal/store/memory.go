package store

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/aaronzipp/escape-room-live/internal/models"
)

// Memory keeps encoded session documents in process memory. The TTL passed to
// Put is ignored.
type Memory struct {
	docs map[string][]byte
	mu   sync.RWMutex
}

// NewMemory creates a new in-process store
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string][]byte),
	}
}

// Get retrieves a session by id
func (m *Memory) Get(_ context.Context, id string) (*models.Session, bool) {
	data, ok := m.getRaw(id)
	if !ok {
		return nil, false
	}
	session, err := models.Decode(id, data)
	if err != nil {
		log.Printf("store: memory decode failed id=%s: %v", id, err)
		return nil, false
	}
	return session, true
}

// Put stores a session
func (m *Memory) Put(_ context.Context, session *models.Session, _ time.Duration) error {
	data, err := models.Encode(session)
	if err != nil {
		return err
	}
	m.putRaw(session.ID, data)
	return nil
}

// Delete removes a session
func (m *Memory) Delete(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
}

// Backend implements Store.
func (m *Memory) Backend() string {
	return BackendMemory
}

func (m *Memory) getRaw(id string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[id]
	return data, ok
}

func (m *Memory) putRaw(id string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = data
}
