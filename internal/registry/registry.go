// Package registry holds the tag and PLC catalog the dashboard is
// built against. In demo mode the catalog is a fixed set of plant
// signals; in gateway mode it is refreshed from the gateway.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/factory-dashboard/backend/internal/models"
)

// Registry is a concurrency-safe tag/PLC catalog.
type Registry struct {
	mu   sync.RWMutex
	tags map[models.TagID]models.Tag
	plcs map[string]models.PLC
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		tags: make(map[models.TagID]models.Tag),
		plcs: make(map[string]models.PLC),
	}
}

// NewDemo returns a registry pre-loaded with the demo plant catalog.
func NewDemo() *Registry {
	r := New()
	r.SetPLCs([]models.PLC{
		{ID: "plc-1", Name: "Line 1 PLC", Brand: "mitsubishi"},
		{ID: "plc-2", Name: "Utility PLC", Brand: "siemens"},
	})
	r.SetTags([]models.Tag{
		{ID: "1", Name: "Tank Level", PLCID: "plc-1", Unit: "%", DataType: "float"},
		{ID: "2", Name: "Pump Flow", PLCID: "plc-1", Unit: "L/min", DataType: "float"},
		{ID: "3", Name: "Line Pressure", PLCID: "plc-1", Unit: "bar", DataType: "float"},
		{ID: "4", Name: "Oven Temperature", PLCID: "plc-1", Unit: "degC", DataType: "float"},
		{ID: "5", Name: "Conveyor Speed", PLCID: "plc-1", Unit: "rpm", DataType: "float"},
		{ID: "6", Name: "Cooling Water Temperature", PLCID: "plc-2", Unit: "degC", DataType: "float"},
		{ID: "7", Name: "Compressor Pressure", PLCID: "plc-2", Unit: "bar", DataType: "float"},
		{ID: "8", Name: "Buffer Tank Level", PLCID: "plc-2", Unit: "%", DataType: "float"},
	})
	return r
}

// SetTags replaces the tag catalog. IDs are normalized.
func (r *Registry) SetTags(tags []models.Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = make(map[models.TagID]models.Tag, len(tags))
	for _, t := range tags {
		t.ID = models.NormalizeTagID(t.ID)
		r.tags[t.ID] = t
	}
}

// SetPLCs replaces the PLC catalog.
func (r *Registry) SetPLCs(plcs []models.PLC) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plcs = make(map[string]models.PLC, len(plcs))
	for _, p := range plcs {
		r.plcs[p.ID] = p
	}
}

// Lookup returns the tag for an id, normalizing first.
func (r *Registry) Lookup(id models.TagID) (models.Tag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tags[models.NormalizeTagID(id)]
	return t, ok
}

// Tags returns the catalog sorted by id.
func (r *Registry) Tags() []models.Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Tag, 0, len(r.tags))
	for _, t := range r.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PLCs returns the PLC catalog sorted by id.
func (r *Registry) PLCs() []models.PLC {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.PLC, 0, len(r.plcs))
	for _, p := range r.plcs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TagIDs returns every catalogued tag id, sorted.
func (r *Registry) TagIDs() []models.TagID {
	tags := r.Tags()
	out := make([]models.TagID, len(tags))
	for i, t := range tags {
		out[i] = t.ID
	}
	return out
}

// wireTag tolerates numeric ids the same way live readings do.
type wireTag struct {
	ID       interface{} `json:"id"`
	TagID    interface{} `json:"tagId"`
	Name     string      `json:"name"`
	PLCID    string      `json:"plcId"`
	Unit     string      `json:"unit"`
	DataType string      `json:"dataType"`
}

// RefreshFromGateway pulls the tag and PLC catalog from the gateway's
// registry endpoints.
func (r *Registry) RefreshFromGateway(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}

	var wireTags []wireTag
	if err := getJSON(ctx, client, baseURL+"/gateway/tags", &wireTags); err != nil {
		return fmt.Errorf("fetching tags: %w", err)
	}
	tags := make([]models.Tag, 0, len(wireTags))
	for _, wt := range wireTags {
		id := wt.ID
		if id == nil {
			id = wt.TagID
		}
		if id == nil {
			continue
		}
		tags = append(tags, models.Tag{
			ID:       models.NormalizeTagID(id),
			Name:     wt.Name,
			PLCID:    wt.PLCID,
			Unit:     wt.Unit,
			DataType: wt.DataType,
		})
	}

	var plcs []models.PLC
	if err := getJSON(ctx, client, baseURL+"/gateway/plcs", &plcs); err != nil {
		return fmt.Errorf("fetching plcs: %w", err)
	}

	r.SetTags(tags)
	r.SetPLCs(plcs)
	return nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
