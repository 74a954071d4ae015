package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/factory-dashboard/backend/internal/models"
)

// GatewayStore persists dashboards through the gateway's REST API in
// authenticated mode.
type GatewayStore struct {
	baseURL string
	client  *http.Client
}

// NewGatewayStore creates a GatewayStore against baseURL (no trailing
// slash).
func NewGatewayStore(baseURL string) *GatewayStore {
	return &GatewayStore{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *GatewayStore) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("dashboard request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{ID: path}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("dashboard request failed: %s", resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// List returns all dashboards from the gateway.
func (s *GatewayStore) List(ctx context.Context) ([]models.DashboardState, error) {
	var out []models.DashboardState
	if err := s.do(ctx, http.MethodGet, "/dashboards", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one dashboard by id.
func (s *GatewayStore) Get(ctx context.Context, id string) (models.DashboardState, error) {
	var out models.DashboardState
	if err := s.do(ctx, http.MethodGet, "/dashboards/"+id, nil, &out); err != nil {
		return models.DashboardState{}, err
	}
	return out, nil
}

// Create posts a new dashboard; the gateway assigns the id.
func (s *GatewayStore) Create(ctx context.Context, state models.DashboardState) (models.DashboardState, error) {
	var out models.DashboardState
	if err := s.do(ctx, http.MethodPost, "/dashboards", state, &out); err != nil {
		return models.DashboardState{}, err
	}
	return out, nil
}

// Update puts the full dashboard state.
func (s *GatewayStore) Update(ctx context.Context, state models.DashboardState) error {
	return s.do(ctx, http.MethodPut, "/dashboards/"+state.ID, state, nil)
}

// Delete removes a dashboard.
func (s *GatewayStore) Delete(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/dashboards/"+id, nil, nil)
}
