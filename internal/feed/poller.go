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

// Sink receives every accepted batch of live readings, e.g. the
// websocket hub or the sample archive.
type Sink func(readings []Reading)

// Poller drives the periodic live tick: fetch from the source, record
// into the sample store, fan out to sinks. It polls the configured
// tag set; SetTags swaps it without restarting the loop.
type Poller struct {
	mu       sync.RWMutex
	source   Source
	samples  *store.SampleStore
	interval time.Duration
	tagIDs   []models.TagID
	sinks    []Sink
	srcName  string
	log      *logrus.Entry
}

// NewPoller creates a Poller. srcName labels metrics ("simulator" or
// "gateway").
func NewPoller(source Source, samples *store.SampleStore, interval time.Duration, srcName string, log *logrus.Logger) *Poller {
	if log == nil {
		log = logrus.New()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{
		source:   source,
		samples:  samples,
		interval: interval,
		srcName:  srcName,
		log:      log.WithField("component", "poller"),
	}
}

// SetTags replaces the polled tag set. Takes effect on the next tick.
func (p *Poller) SetTags(tagIDs []models.TagID) {
	normalized := make([]models.TagID, len(tagIDs))
	for i, id := range tagIDs {
		normalized[i] = models.NormalizeTagID(id)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.tagIDs = normalized
}

// AddSink registers a recipient for accepted batches.
func (p *Poller) AddSink(sink Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinks = append(p.sinks, sink)
}

// Run polls until ctx is cancelled. Teardown cancels the tick; no
// store mutation happens after Run returns.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.WithField("interval", p.interval).Info("live poller started")

	for {
		select {
		case <-ctx.Done():
			p.log.Info("live poller stopped")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	p.mu.RLock()
	tagIDs := p.tagIDs
	sinks := p.sinks
	p.mu.RUnlock()

	if len(tagIDs) == 0 {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	readings, err := p.source.Fetch(fetchCtx, tagIDs)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.FeedErrors.WithLabelValues(p.srcName).Inc()
		p.log.WithError(err).Warn("live fetch failed")
		return
	}

	for _, r := range readings {
		p.samples.UpsertLive(r.TagID, r.Sample())
	}
	metrics.SamplesIngested.WithLabelValues(p.srcName).Add(float64(len(readings)))
	metrics.TrackedTags.Set(float64(p.samples.TrackedTags()))

	for _, sink := range sinks {
		sink(readings)
	}
}
