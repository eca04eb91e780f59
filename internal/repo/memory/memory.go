package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/uplinkwatch/internal/domain"
)

// Store is the in-memory adapter for both state and assessment ports. Used
// when DATABASE_URL is empty, and by tests that need a controllable store.
type Store struct {
	mu          sync.RWMutex
	states      map[string]domain.RecoveryState
	assessments []domain.HealthAssessment
	maxHistory  int
}

func New() *Store {
	return &Store{
		states:     make(map[string]domain.RecoveryState),
		maxHistory: 2048,
	}
}

func (m *Store) Load(ctx context.Context, target string) (*domain.RecoveryState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[target]
	if !ok {
		return nil, nil
	}
	cp := st
	cp.Attempts = append([]time.Time(nil), st.Attempts...)
	return &cp, nil
}

func (m *Store) Save(ctx context.Context, target string, st domain.RecoveryState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := st
	cp.Attempts = append([]time.Time(nil), st.Attempts...)
	m.states[target] = cp
	return nil
}

func (m *Store) Append(ctx context.Context, a *domain.HealthAssessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments = append(m.assessments, *a)
	if len(m.assessments) > m.maxHistory {
		m.assessments = m.assessments[len(m.assessments)-m.maxHistory:]
	}
	return nil
}

func (m *Store) Latest(ctx context.Context) (*domain.HealthAssessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.assessments) == 0 {
		return nil, nil
	}
	cp := m.assessments[len(m.assessments)-1]
	return &cp, nil
}

func (m *Store) History(ctx context.Context, limit int) ([]domain.HealthAssessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.assessments)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.HealthAssessment, n)
	// newest first
	for i := 0; i < n; i++ {
		out[i] = m.assessments[len(m.assessments)-1-i]
	}
	return out, nil
}
