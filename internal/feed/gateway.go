package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/factory-dashboard/backend/internal/models"
)

// GatewayClient polls the plant gateway for live samples and requests
// historical ranges. Malformed readings are repaired with safe
// defaults rather than failing the batch.
type GatewayClient struct {
	baseURL string
	client  *http.Client
}

// NewGatewayClient creates a client against baseURL (no trailing
// slash).
func NewGatewayClient(baseURL string) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// wireReading is the gateway's sample shape. Tag ids arrive as either
// numbers or strings; timestamps under two possible field names.
type wireReading struct {
	TagID      interface{} `json:"tagId"`
	TagIDSnake interface{} `json:"tag_id"`
	Value      interface{} `json:"value"`
	Quality    string      `json:"quality"`
	Timestamp  string      `json:"timestamp"`
	ReceivedAt string      `json:"received_at"`
}

func (w wireReading) toReading() (Reading, bool) {
	raw := w.TagID
	if raw == nil {
		raw = w.TagIDSnake
	}
	if raw == nil {
		return Reading{}, false
	}

	value := w.Value
	if value == nil {
		value = 0.0
	}

	ts := time.Now()
	for _, field := range []string{w.Timestamp, w.ReceivedAt} {
		if field == "" {
			continue
		}
		if parsed, err := time.Parse(time.RFC3339, field); err == nil {
			ts = parsed
			break
		}
	}

	return Reading{
		TagID:     models.NormalizeTagID(raw),
		Value:     value,
		Quality:   models.ParseQuality(w.Quality),
		Timestamp: ts,
	}, true
}

// Fetch polls GET /gateway/data for the requested tags.
func (g *GatewayClient) Fetch(ctx context.Context, tagIDs []models.TagID) ([]Reading, error) {
	ids := make([]string, len(tagIDs))
	for i, id := range tagIDs {
		ids[i] = id.String()
	}

	reqURL := fmt.Sprintf("%s/gateway/data?tagIds=%s", g.baseURL, url.QueryEscape(strings.Join(ids, ",")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway data request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway data request failed: %s", resp.Status)
	}

	// Some gateway versions wrap the array in {"data": [...]}.
	var wrapped struct {
		Data []wireReading `json:"data"`
	}
	var flat []wireReading

	body := json.NewDecoder(resp.Body)
	var rawMsg json.RawMessage
	if err := body.Decode(&rawMsg); err != nil {
		return nil, fmt.Errorf("decoding gateway data: %w", err)
	}
	if err := json.Unmarshal(rawMsg, &flat); err != nil {
		if err := json.Unmarshal(rawMsg, &wrapped); err != nil {
			return nil, fmt.Errorf("decoding gateway data: %w", err)
		}
		flat = wrapped.Data
	}

	out := make([]Reading, 0, len(flat))
	for _, w := range flat {
		if r, ok := w.toReading(); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

type historicalRequest struct {
	TagIDs    []string `json:"tagIds"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

type historicalResponse struct {
	Data      []wireReading `json:"data"`
	Status    string        `json:"status,omitempty"`
	CommandID string        `json:"command_id,omitempty"`
}

// FetchHistory posts POST /gateway/historical-data for a time range.
// A "pending" status means the gateway is still collecting; it must
// not be treated as an empty result.
func (g *GatewayClient) FetchHistory(ctx context.Context, tagIDs []models.TagID, start, end time.Time) ([]Reading, bool, error) {
	ids := make([]string, len(tagIDs))
	for i, id := range tagIDs {
		ids[i] = id.String()
	}

	payload, err := json.Marshal(historicalRequest{
		TagIDs:    ids,
		StartDate: start.Format(time.RFC3339),
		EndDate:   end.Format(time.RFC3339),
	})
	if err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/gateway/historical-data", bytes.NewReader(payload))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("historical data request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("historical data request failed: %s", resp.Status)
	}

	var decoded historicalResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("decoding historical data: %w", err)
	}

	if decoded.Status == "pending" {
		return nil, true, nil
	}

	out := make([]Reading, 0, len(decoded.Data))
	for _, w := range decoded.Data {
		if r, ok := w.toReading(); ok {
			out = append(out, r)
		}
	}
	return out, false, nil
}
