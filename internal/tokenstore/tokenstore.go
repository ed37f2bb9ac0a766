package tokenstore

import "sync"

// Store is durable client storage for the bearer token. An empty token
// means unauthenticated. Writes are last-write-wins.
type Store interface {
	Token() (string, error)
	SetToken(token string) error
	Clear() error
}

// Memory is an in-process Store for tests and ephemeral sessions.
type Memory struct {
	mu    sync.Mutex
	token string
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *Memory) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Clear() error {
	return m.SetToken("")
}
