// Package feed supplies live and historical samples to the sample
// store, from either a local simulator (demo mode) or the gateway
// API (authenticated mode).
package feed

import (
	"context"
	"time"

	"github.com/factory-dashboard/backend/internal/models"
)

// Reading is one tag sample as delivered by a feed, before it is
// recorded into the store.
type Reading struct {
	TagID     models.TagID   `json:"tagId"`
	Value     interface{}    `json:"value"`
	Quality   models.Quality `json:"quality"`
	Timestamp time.Time      `json:"timestamp"`
}

// Sample converts a reading to its store representation.
func (r Reading) Sample() models.Sample {
	return models.Sample{Value: r.Value, Quality: r.Quality, Timestamp: r.Timestamp}
}

// Source produces one batch of live readings for the requested tags.
type Source interface {
	Fetch(ctx context.Context, tagIDs []models.TagID) ([]Reading, error)
}

// HistoricalSource serves time-range queries. pending reports that the
// backend has accepted the request but has no data yet; pending is not
// an empty result and callers must retry.
type HistoricalSource interface {
	FetchHistory(ctx context.Context, tagIDs []models.TagID, start, end time.Time) (readings []Reading, pending bool, err error)
}
