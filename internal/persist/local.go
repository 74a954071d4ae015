package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/factory-dashboard/backend/internal/models"
)

// LocalStore persists dashboards as JSON files on the local
// filesystem, one file per dashboard. Used in demo mode and
// air-gapped deployments where no gateway backend exists.
type LocalStore struct {
	mu  sync.RWMutex
	dir string
}

// NewLocalStore creates a LocalStore rooted at dir, loading nothing
// eagerly; files are the source of truth.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating dashboard directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// List returns all stored dashboards, default dashboard first, then
// by name.
func (s *LocalStore) List(ctx context.Context) ([]models.DashboardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dashboard directory: %w", err)
	}

	var out []models.DashboardState
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		state, err := s.read(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			// A corrupt file must not hide the rest.
			continue
		}
		out = append(out, state)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Get returns one dashboard by id.
func (s *LocalStore) Get(ctx context.Context, id string) (models.DashboardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, err := s.read(s.path(id))
	if os.IsNotExist(err) {
		return models.DashboardState{}, &NotFoundError{ID: id}
	}
	return state, err
}

// Create assigns a new id and writes the dashboard.
func (s *LocalStore) Create(ctx context.Context, state models.DashboardState) (models.DashboardState, error) {
	state.ID = uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(state); err != nil {
		return models.DashboardState{}, err
	}
	return state, nil
}

// Update overwrites an existing dashboard.
func (s *LocalStore) Update(ctx context.Context, state models.DashboardState) error {
	if state.ID == "" {
		return fmt.Errorf("update requires a dashboard id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(state.ID)); os.IsNotExist(err) {
		return &NotFoundError{ID: state.ID}
	}
	return s.write(state)
}

// Delete removes a dashboard.
func (s *LocalStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return &NotFoundError{ID: id}
	}
	return err
}

func (s *LocalStore) read(path string) (models.DashboardState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.DashboardState{}, err
	}
	var state models.DashboardState
	if err := json.Unmarshal(data, &state); err != nil {
		return models.DashboardState{}, fmt.Errorf("decoding dashboard %s: %w", path, err)
	}
	return state, nil
}

func (s *LocalStore) write(state models.DashboardState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding dashboard: %w", err)
	}
	// Write-then-rename so a crash mid-write cannot corrupt the file.
	tmp := s.path(state.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing dashboard: %w", err)
	}
	return os.Rename(tmp, s.path(state.ID))
}
