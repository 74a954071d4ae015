// Package store holds the in-memory sample state for all tags.
package store

import (
	"sort"
	"sync"

	"github.com/factory-dashboard/backend/internal/models"
)

// DefaultLiveWindow is the number of live samples retained per tag
// when no true historical series has been fetched.
const DefaultLiveWindow = 60

// SampleStore keeps the latest sample per tag and an ordered
// historical series per tag. All tag ids are normalized to their
// canonical form on every call, so numeric-origin and string-origin
// ids address the same entry.
type SampleStore struct {
	mu         sync.RWMutex
	current    map[models.TagID]models.Sample
	history    map[models.TagID][]models.Sample
	liveWindow map[models.TagID][]models.Sample
	windowSize int
}

// New creates a SampleStore with the default live-window capacity.
func New() *SampleStore {
	return NewWithWindow(DefaultLiveWindow)
}

// NewWithWindow creates a SampleStore with a specific live-window
// capacity per tag.
func NewWithWindow(windowSize int) *SampleStore {
	if windowSize <= 0 {
		windowSize = DefaultLiveWindow
	}
	return &SampleStore{
		current:    make(map[models.TagID]models.Sample),
		history:    make(map[models.TagID][]models.Sample),
		liveWindow: make(map[models.TagID][]models.Sample),
		windowSize: windowSize,
	}
}

// UpsertLive replaces the current sample for a tag and appends it to
// the tag's bounded live window.
func (s *SampleStore) UpsertLive(tagID interface{}, sample models.Sample) {
	id := models.NormalizeTagID(tagID)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current[id] = sample

	win := append(s.liveWindow[id], sample)
	if len(win) > s.windowSize {
		win = win[len(win)-s.windowSize:]
	}
	s.liveWindow[id] = win
}

// ReplaceHistory wholesale-replaces a tag's historical series. The
// stored series is sorted ascending by timestamp as a post-condition
// regardless of input order.
func (s *SampleStore) ReplaceHistory(tagID interface{}, series []models.Sample) {
	id := models.NormalizeTagID(tagID)

	sorted := append([]models.Sample(nil), series...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[id] = sorted
}

// Get returns the current sample for a tag.
func (s *SampleStore) Get(tagID interface{}) (models.Sample, bool) {
	id := models.NormalizeTagID(tagID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	sample, ok := s.current[id]
	return sample, ok
}

// GetSeries returns the tag's time series: the historical series when
// one has been fetched, otherwise the bounded live window. The result
// is a copy; callers may not mutate store state through it.
func (s *SampleStore) GetSeries(tagID interface{}) []models.Sample {
	id := models.NormalizeTagID(tagID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if series, ok := s.history[id]; ok && len(series) > 0 {
		return append([]models.Sample(nil), series...)
	}
	return append([]models.Sample(nil), s.liveWindow[id]...)
}

// HasHistory reports whether a true historical series exists for a tag.
func (s *SampleStore) HasHistory(tagID interface{}) bool {
	id := models.NormalizeTagID(tagID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.history[id]) > 0
}

// ClearHistory drops all historical series, e.g. when the selected
// time range is reset back to live mode.
func (s *SampleStore) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = make(map[models.TagID][]models.Sample)
}

// Snapshot returns a copy of the current sample per tag.
func (s *SampleStore) Snapshot() map[models.TagID]models.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.TagID]models.Sample, len(s.current))
	for id, sample := range s.current {
		out[id] = sample
	}
	return out
}

// CurrentNumeric returns the current numeric value per tag, skipping
// tags whose current value is non-numeric.
func (s *SampleStore) CurrentNumeric(tagIDs []models.TagID) map[models.TagID]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.TagID]float64, len(tagIDs))
	for _, raw := range tagIDs {
		id := models.NormalizeTagID(raw)
		sample, ok := s.current[id]
		if !ok {
			continue
		}
		if v, ok := sample.NumericValue(); ok {
			out[id] = v
		}
	}
	return out
}

// TrackedTags returns the number of tags with a current sample.
func (s *SampleStore) TrackedTags() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}
