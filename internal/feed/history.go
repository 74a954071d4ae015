package feed

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/factory-dashboard/backend/internal/metrics"
	"github.com/factory-dashboard/backend/internal/models"
	"github.com/factory-dashboard/backend/internal/store"
)

// DefaultPendingRetry is how long to wait before re-polling a
// historical request the gateway reported as pending.
const DefaultPendingRetry = 2 * time.Second

// Coordinator serializes historical fetches into the sample store
// with last-write-wins semantics by request issuance order: a
// response is applied only if no later-issued fetch has already been
// applied, regardless of arrival order.
type Coordinator struct {
	mu          sync.Mutex
	issued      uint64
	lastApplied uint64

	source       HistoricalSource
	samples      *store.SampleStore
	pendingRetry time.Duration
	log          *logrus.Entry
}

// NewCoordinator creates a Coordinator over source and samples.
func NewCoordinator(source HistoricalSource, samples *store.SampleStore, log *logrus.Logger) *Coordinator {
	if log == nil {
		log = logrus.New()
	}
	return &Coordinator{
		source:       source,
		samples:      samples,
		pendingRetry: DefaultPendingRetry,
		log:          log.WithField("component", "history"),
	}
}

// SetPendingRetry overrides the pending re-poll interval.
func (c *Coordinator) SetPendingRetry(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.pendingRetry = d
	}
}

// issue assigns the next request sequence number.
func (c *Coordinator) issue() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// apply records the fetched series if the request has not been
// superseded. Returns false when the response was discarded as stale.
func (c *Coordinator) apply(seq uint64, readings []Reading) bool {
	c.mu.Lock()
	if seq <= c.lastApplied {
		c.mu.Unlock()
		metrics.StaleResponsesDropped.Inc()
		return false
	}
	c.lastApplied = seq
	c.mu.Unlock()

	series := make(map[models.TagID][]models.Sample)
	for _, r := range readings {
		series[r.TagID] = append(series[r.TagID], r.Sample())
	}
	for id, samples := range series {
		c.samples.ReplaceHistory(id, samples)
	}
	return true
}

// Fetch issues a historical request for the tag set and applies the
// result. Pending responses are re-polled until data arrives or ctx
// is cancelled. Returns true when the response was applied, false
// when it was superseded by a later fetch.
func (c *Coordinator) Fetch(ctx context.Context, tagIDs []models.TagID, start, end time.Time) (bool, error) {
	seq := c.issue()

	normalized := make([]models.TagID, len(tagIDs))
	for i, id := range tagIDs {
		normalized[i] = models.NormalizeTagID(id)
	}

	c.mu.Lock()
	retry := c.pendingRetry
	c.mu.Unlock()

	for {
		readings, pending, err := c.source.FetchHistory(ctx, normalized, start, end)
		if err != nil {
			metrics.FeedErrors.WithLabelValues("historical").Inc()
			return false, err
		}
		if !pending {
			applied := c.apply(seq, readings)
			if !applied {
				c.log.WithField("seq", seq).Debug("stale historical response discarded")
			}
			return applied, nil
		}

		c.log.WithField("seq", seq).Debug("historical data pending, retrying")
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(retry):
		}
	}
}
