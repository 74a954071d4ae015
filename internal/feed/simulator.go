package feed

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/factory-dashboard/backend/internal/models"
)

// Simulator generates plausible per-tag waveforms for demo mode. Each
// tag gets a sine wave over a name-appropriate range plus jitter, so
// gauges and trends look alive without a gateway.
type Simulator struct {
	mu     sync.Mutex
	lookup func(models.TagID) (models.Tag, bool)
	phases map[models.TagID]float64
	rng    *rand.Rand
	start  time.Time
}

// NewSimulator creates a Simulator. lookup resolves tag metadata so
// value ranges can follow the tag's display name; it may be nil.
func NewSimulator(lookup func(models.TagID) (models.Tag, bool)) *Simulator {
	if lookup == nil {
		lookup = func(models.TagID) (models.Tag, bool) { return models.Tag{}, false }
	}
	return &Simulator{
		lookup: lookup,
		phases: make(map[models.TagID]float64),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		start:  time.Now(),
	}
}

// simRange returns the (min, max) band for a tag name, matching the
// full-scale table used by gauge widgets.
func simRange(name string) (float64, float64) {
	switch {
	case strings.Contains(name, "Level"):
		return 0, 100
	case strings.Contains(name, "Flow"):
		return 0, 200
	case strings.Contains(name, "Pressure"):
		return 0, 150
	case strings.Contains(name, "Temperature"):
		return 20, 100
	case strings.Contains(name, "Speed"):
		return 0, 3000
	default:
		return 0, 100
	}
}

// Fetch generates one reading per requested tag at the current time.
func (s *Simulator) Fetch(ctx context.Context, tagIDs []models.TagID) ([]Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(s.start).Seconds()

	out := make([]Reading, 0, len(tagIDs))
	for _, raw := range tagIDs {
		id := models.NormalizeTagID(raw)

		phase, ok := s.phases[id]
		if !ok {
			phase = s.rng.Float64() * 2 * math.Pi
			s.phases[id] = phase
		}

		name := id.String()
		if tag, ok := s.lookup(id); ok {
			name = tag.Name
		}
		min, max := simRange(name)

		mid := (min + max) / 2
		amp := (max - min) / 2 * 0.7
		value := mid + amp*math.Sin(elapsed/30+phase) + s.rng.Float64()*(max-min)*0.05

		out = append(out, Reading{
			TagID:     id,
			Value:     math.Round(value*100) / 100,
			Quality:   models.QualityGood,
			Timestamp: now,
		})
	}
	return out, nil
}
