// mock_persist.go - In-memory persist.Store implementation for testing
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/factory-dashboard/backend/internal/models"
	"github.com/factory-dashboard/backend/internal/persist"
)

// MockPersist implements persist.Store for testing
type MockPersist struct {
	mu     sync.RWMutex
	states map[string]models.DashboardState
	nextID int

	// Optional error injection
	CreateErr error
	UpdateErr error
}

// NewMockPersist creates an empty in-memory store
func NewMockPersist() *MockPersist {
	return &MockPersist{states: make(map[string]models.DashboardState)}
}

func (m *MockPersist) List(ctx context.Context) ([]models.DashboardState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.DashboardState, 0, len(m.states))
	for _, s := range m.states {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockPersist) Get(ctx context.Context, id string) (models.DashboardState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[id]
	if !ok {
		return models.DashboardState{}, &persist.NotFoundError{ID: id}
	}
	return s.Clone(), nil
}

func (m *MockPersist) Create(ctx context.Context, state models.DashboardState) (models.DashboardState, error) {
	if m.CreateErr != nil {
		return models.DashboardState{}, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if state.ID == "" {
		m.nextID++
		state.ID = fmt.Sprintf("mock-%d", m.nextID)
	}
	m.states[state.ID] = state.Clone()
	return state, nil
}

func (m *MockPersist) Update(ctx context.Context, state models.DashboardState) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[state.ID]; !ok {
		return &persist.NotFoundError{ID: state.ID}
	}
	m.states[state.ID] = state.Clone()
	return nil
}

func (m *MockPersist) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[id]; !ok {
		return &persist.NotFoundError{ID: id}
	}
	delete(m.states, id)
	return nil
}

// Count returns the number of stored dashboards
func (m *MockPersist) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}
