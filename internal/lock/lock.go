// Package lock impede execuções sobrepostas da sincronização e guarda o
// status da última rodada.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"catalogsync/internal/model"
)

const (
	lockKey   = "catalogsync:lock"
	statusKey = "catalogsync:status"
	statusTTL = 7 * 24 * time.Hour
)

// Store é o lock com expiração mais o último relatório.
type Store interface {
	// Acquire devolve ok=false quando outra execução segura o lock.
	Acquire(ctx context.Context) (token string, ok bool, err error)
	Release(ctx context.Context, token string) error
	Running(ctx context.Context) (bool, error)
	SaveStatus(ctx context.Context, r model.RunReport) error
	// LastStatus devolve nil quando nenhuma execução foi registrada.
	LastStatus(ctx context.Context) (*model.RunReport, error)
}

// MemoryStore vale para uma única instância do servidor.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	token   string
	expires time.Time
	last    *model.RunReport
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Acquire(_ context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.heldLocked() {
		return "", false, nil
	}
	m.token = uuid.NewString()
	m.expires = m.now().Add(m.ttl)
	return m.token, true, nil
}

func (m *MemoryStore) Release(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// um lock expirado pode já ter outro dono
	if m.token == token {
		m.token = ""
	}
	return nil
}

func (m *MemoryStore) Running(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heldLocked(), nil
}

func (m *MemoryStore) SaveStatus(_ context.Context, r model.RunReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &r
	return nil
}

func (m *MemoryStore) LastStatus(_ context.Context) (*model.RunReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return nil, nil
	}
	r := *m.last
	return &r, nil
}

func (m *MemoryStore) heldLocked() bool {
	return m.token != "" && m.now().Before(m.expires)
}
