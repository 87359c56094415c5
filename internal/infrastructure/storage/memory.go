// Package storage implements durable client storage for the session pair.
package storage

import (
	"context"
	"sync"

	"github.com/rasmith-dev/propadmin/internal/core/ports"
)

// Memory keeps the session in process memory. It backs tests and the
// "memory" backend, where a restart logs the user out.
type Memory struct {
	mu      sync.RWMutex
	session ports.StoredSession
}

func NewMemory() *Memory {
	return &Memory{}
}

// Seed sets the raw keys without pairing checks, so tests can build
// asymmetric states.
func (m *Memory) Seed(token, user string) {
	m.mu.Lock()
	m.session = ports.StoredSession{Token: token, User: user}
	m.mu.Unlock()
}

func (m *Memory) Load(_ context.Context) (ports.StoredSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, nil
}

func (m *Memory) Save(_ context.Context, token, user string) error {
	m.Seed(token, user)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.session = ports.StoredSession{}
	m.mu.Unlock()
	return nil
}
