package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/factory-dashboard/backend/internal/models"
	"github.com/factory-dashboard/backend/internal/store"
)

// blockingSource lets the test control when each historical response
// resolves, to exercise out-of-order arrival.
type blockingSource struct {
	mu      sync.Mutex
	pending map[string]chan []Reading
}

func newBlockingSource() *blockingSource {
	return &blockingSource{pending: make(map[string]chan []Reading)}
}

func (s *blockingSource) gate(key string) chan []Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.pending[key]
	if !ok {
		ch = make(chan []Reading, 1)
		s.pending[key] = ch
	}
	return ch
}

func (s *blockingSource) FetchHistory(ctx context.Context, tagIDs []models.TagID, start, end time.Time) ([]Reading, bool, error) {
	ch := s.gate(tagIDs[0].String())
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case readings := <-ch:
		return readings, false, nil
	}
}

func reading(id models.TagID, v float64, ts time.Time) Reading {
	return Reading{TagID: id, Value: v, Quality: models.QualityGood, Timestamp: ts}
}

func TestCoordinator_StaleResponseRejected(t *testing.T) {
	samples := store.New()
	source := newBlockingSource()
	c := NewCoordinator(source, samples, nil)

	now := time.Now()
	start, end := now.Add(-time.Hour), now

	// Issue fetch A, then fetch B superseding it, both for tag "1".
	// The source keys gates by the first tag id; use distinct ids so
	// each fetch can be released independently, but both write tag
	// "shared".
	resultA := make(chan bool, 1)
	resultB := make(chan bool, 1)

	go func() {
		applied, _ := c.Fetch(context.Background(), []models.TagID{"a"}, start, end)
		resultA <- applied
	}()
	// Ensure A is issued before B.
	time.Sleep(20 * time.Millisecond)
	go func() {
		applied, _ := c.Fetch(context.Background(), []models.TagID{"b"}, start, end)
		resultB <- applied
	}()
	time.Sleep(20 * time.Millisecond)

	// Resolve B first, then A.
	source.gate("b") <- []Reading{reading("shared", 222, now)}
	if applied := <-resultB; !applied {
		t.Fatal("fetch B should apply")
	}
	source.gate("a") <- []Reading{reading("shared", 111, now)}
	if applied := <-resultA; applied {
		t.Fatal("fetch A resolved after B completed and must be discarded")
	}

	series := samples.GetSeries("shared")
	if len(series) != 1 || series[0].Value != 222.0 {
		t.Errorf("store must reflect fetch B, got %v", series)
	}
}

func TestCoordinator_EarlierFailureDoesNotBlockLater(t *testing.T) {
	samples := store.New()
	source := newBlockingSource()
	c := NewCoordinator(source, samples, nil)

	now := time.Now()

	done := make(chan bool, 1)
	go func() {
		applied, _ := c.Fetch(context.Background(), []models.TagID{"a"}, now.Add(-time.Hour), now)
		done <- applied
	}()
	time.Sleep(20 * time.Millisecond)
	source.gate("a") <- []Reading{reading("a", 1, now)}
	if !<-done {
		t.Fatal("sole fetch should apply")
	}

	// A later fetch still applies normally.
	go func() {
		applied, _ := c.Fetch(context.Background(), []models.TagID{"a"}, now.Add(-time.Hour), now)
		done <- applied
	}()
	time.Sleep(20 * time.Millisecond)
	source.gate("a") <- []Reading{reading("a", 2, now)}
	if !<-done {
		t.Fatal("subsequent fetch should apply")
	}
}

// pendingSource returns pending a fixed number of times before
// yielding data.
type pendingSource struct {
	mu        sync.Mutex
	pendings  int
	callCount int
	data      []Reading
}

func (s *pendingSource) FetchHistory(ctx context.Context, tagIDs []models.TagID, start, end time.Time) ([]Reading, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callCount++
	if s.callCount <= s.pendings {
		return nil, true, nil
	}
	return s.data, false, nil
}

func TestCoordinator_PendingIsNotEmpty(t *testing.T) {
	samples := store.New()
	now := time.Now()
	source := &pendingSource{
		pendings: 2,
		data:     []Reading{reading("1", 7, now)},
	}
	c := NewCoordinator(source, samples, nil)
	c.SetPendingRetry(5 * time.Millisecond)

	applied, err := c.Fetch(context.Background(), []models.TagID{"1"}, now.Add(-time.Hour), now)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !applied {
		t.Fatal("fetch should apply after pending resolves")
	}
	if source.callCount != 3 {
		t.Errorf("expected 2 pending polls + 1 data poll, got %d calls", source.callCount)
	}
	if series := samples.GetSeries("1"); len(series) != 1 {
		t.Errorf("expected data recorded after pending, got %v", series)
	}
}

func TestCoordinator_PendingCancellable(t *testing.T) {
	samples := store.New()
	source := &pendingSource{pendings: 1 << 30}
	c := NewCoordinator(source, samples, nil)
	c.SetPendingRetry(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	now := time.Now()
	_, err := c.Fetch(ctx, []models.TagID{"1"}, now.Add(-time.Hour), now)
	if err == nil {
		t.Fatal("expected context error for endless pending")
	}
}
