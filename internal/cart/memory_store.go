package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps sessions in process memory. Sessions are stored serialised so callers
// never share state with the store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(userID)
}

func (m *MemoryStore) Update(_ context.Context, userID string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.load(userID)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}
	m.sessions[userID] = data
	return s, nil
}

func (m *MemoryStore) load(userID string) (*Session, error) {
	data, ok := m.sessions[userID]
	if !ok {
		return NewSession(userID, InvalidateOnMutation), nil
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}
	s.Bind(InvalidateOnMutation, nil)
	return &s, nil
}
