package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/factory-dashboard/backend/internal/models"
)

// countingStore records persistence calls for debounce assertions.
type countingStore struct {
	mu      sync.Mutex
	creates int
	updates int
	failAll bool
}

func (s *countingStore) List(ctx context.Context) ([]models.DashboardState, error) {
	return nil, nil
}

func (s *countingStore) Get(ctx context.Context, id string) (models.DashboardState, error) {
	return models.DashboardState{}, nil
}

func (s *countingStore) Create(ctx context.Context, state models.DashboardState) (models.DashboardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return models.DashboardState{}, errors.New("backend down")
	}
	s.creates++
	state.ID = "dash-1"
	return state, nil
}

func (s *countingStore) Update(ctx context.Context, state models.DashboardState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("backend down")
	}
	s.updates++
	return nil
}

func (s *countingStore) Delete(ctx context.Context, id string) error { return nil }

func (s *countingStore) saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates + s.updates
}

func newTestManager(store *countingStore, delay time.Duration) *Manager {
	return NewManagerWithDelay(store, nil, delay)
}

func kpiParams(title string, tags ...models.TagID) CreateWidgetParams {
	return CreateWidgetParams{Type: models.WidgetKPI, Title: title, TagIDs: tags}
}

func TestCreateWidget_Validation(t *testing.T) {
	m := newTestManager(&countingStore{}, time.Hour)
	defer m.Close()

	t.Run("empty title rejected", func(t *testing.T) {
		_, _, err := m.CreateWidget(kpiParams("", "t1"))
		if !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("expected ErrEmptyTitle, got %v", err)
		}
	})

	t.Run("empty tag list rejected", func(t *testing.T) {
		_, _, err := m.CreateWidget(kpiParams("Output"))
		if !errors.Is(err, ErrNoTags) {
			t.Errorf("expected ErrNoTags, got %v", err)
		}
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, _, err := m.CreateWidget(CreateWidgetParams{
			Type: "sparkline", Title: "Output", TagIDs: []models.TagID{"t1"},
		})
		if !errors.Is(err, ErrUnknownType) {
			t.Errorf("expected ErrUnknownType, got %v", err)
		}
	})

	t.Run("rejection mutates nothing", func(t *testing.T) {
		if m.WidgetCount() != 0 {
			t.Errorf("expected 0 widgets after rejections, got %d", m.WidgetCount())
		}
	})
}

func TestCreateWidget_DefaultSizes(t *testing.T) {
	m := newTestManager(&countingStore{}, time.Hour)
	defer m.Close()

	_, kpiItem, err := m.CreateWidget(kpiParams("Output", "t1"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if kpiItem.W != 3 || kpiItem.H != 2 || kpiItem.MinW != 2 || kpiItem.MinH != 2 {
		t.Errorf("kpi default size: got %dx%d min %dx%d", kpiItem.W, kpiItem.H, kpiItem.MinW, kpiItem.MinH)
	}

	_, single, _ := m.CreateWidget(CreateWidgetParams{
		Type: models.WidgetGauge, Title: "Level", TagIDs: []models.TagID{"t1"},
	})
	if single.W != 2 || single.H != 2 {
		t.Errorf("single-tag gauge: got %dx%d, want 2x2", single.W, single.H)
	}

	_, multi, _ := m.CreateWidget(CreateWidgetParams{
		Type: models.WidgetGauge, Title: "Levels", TagIDs: []models.TagID{"t1", "t2"},
	})
	if multi.W != 4 || multi.H != 3 {
		t.Errorf("multi-tag gauge: got %dx%d, want 4x3", multi.W, multi.H)
	}

	_, radar, _ := m.CreateWidget(CreateWidgetParams{
		Type: models.WidgetRadar, Title: "Balance", TagIDs: []models.TagID{"t1", "t2", "t3"},
	})
	if radar.W != 3 || radar.H != 3 || radar.MinW != 3 || radar.MinH != 3 {
		t.Errorf("radar default size: got %dx%d min %dx%d", radar.W, radar.H, radar.MinW, radar.MinH)
	}
}

func TestCreateWidget_StackingPlacement(t *testing.T) {
	m := newTestManager(&countingStore{}, time.Hour)
	defer m.Close()

	// Heights 2, 3, 2 -> y offsets 0, 2, 5.
	_, a, _ := m.CreateWidget(kpiParams("A", "t1")) // kpi: h=2
	_, b, _ := m.CreateWidget(CreateWidgetParams{   // donut: h=3
		Type: models.WidgetDonut, Title: "B", TagIDs: []models.TagID{"t1"},
	})
	_, c, _ := m.CreateWidget(kpiParams("C", "t1")) // kpi: h=2

	wantY := []int{0, 2, 5}
	for i, item := range []models.LayoutItem{a, b, c} {
		if item.X != 0 || item.Y != wantY[i] {
			t.Errorf("widget %d placed at (%d,%d), want (0,%d)", i, item.X, item.Y, wantY[i])
		}
	}

	items := m.State().Layouts.LG
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if items[i].Overlaps(items[j]) {
				t.Errorf("layout items %d and %d overlap", i, j)
			}
		}
	}
}

func TestCreateWidget_ColorDeterminism(t *testing.T) {
	m := newTestManager(&countingStore{}, time.Hour)
	defer m.Close()

	tags := []models.TagID{"t1", "t2", "t3"}
	w1, _, _ := m.CreateWidget(CreateWidgetParams{Type: models.WidgetTrend, Title: "A", TagIDs: tags})
	w2, _, _ := m.CreateWidget(CreateWidgetParams{Type: models.WidgetTrend, Title: "B", TagIDs: tags})

	if len(w1.Colors) != len(tags) {
		t.Fatalf("expected %d colors, got %d", len(tags), len(w1.Colors))
	}
	for i := range w1.Colors {
		if w1.Colors[i] != w2.Colors[i] {
			t.Errorf("color %d differs between identical widgets: %s vs %s", i, w1.Colors[i], w2.Colors[i])
		}
	}

	t.Run("explicit colors respected", func(t *testing.T) {
		w, _, _ := m.CreateWidget(CreateWidgetParams{
			Type: models.WidgetTrend, Title: "C", TagIDs: tags,
			Colors: []string{"#111111"},
		})
		if len(w.Colors) != 1 || w.Colors[0] != "#111111" {
			t.Errorf("explicit colors overridden: %v", w.Colors)
		}
	})

	t.Run("palette cycles past its length", func(t *testing.T) {
		many := make([]models.TagID, len(palette)+2)
		for i := range many {
			many[i] = models.TagID(rune('a' + i%26))
		}
		w, _, _ := m.CreateWidget(CreateWidgetParams{Type: models.WidgetRadar, Title: "D", TagIDs: many})
		if w.Colors[len(palette)] != palette[0] {
			t.Errorf("expected palette to cycle, got %s", w.Colors[len(palette)])
		}
	})
}

func TestRemoveWidget_Atomic(t *testing.T) {
	m := newTestManager(&countingStore{}, time.Hour)
	defer m.Close()

	w, _, _ := m.CreateWidget(kpiParams("A", "t1"))
	m.CreateWidget(kpiParams("B", "t1"))

	if err := m.RemoveWidget(w.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	state := m.State()
	if len(state.Widgets) != 1 || len(state.Layouts.LG) != 1 {
		t.Fatalf("expected 1 widget + 1 layout item, got %d + %d",
			len(state.Widgets), len(state.Layouts.LG))
	}
	if state.Layouts.LG[0].WidgetID == w.ID {
		t.Error("layout item of removed widget survived")
	}

	if err := m.RemoveWidget("ghost"); !errors.Is(err, ErrWidgetMissing) {
		t.Errorf("expected ErrWidgetMissing, got %v", err)
	}
}

func TestDebouncedSave(t *testing.T) {
	t.Run("burst of mutations saves once", func(t *testing.T) {
		store := &countingStore{}
		m := newTestManager(store, 150*time.Millisecond)
		defer m.Close()

		saved := make(chan error, 4)
		m.SetOnSaved(func(err error) { saved <- err })

		// Five mutations inside the quiet window.
		for i := 0; i < 5; i++ {
			if _, _, err := m.CreateWidget(kpiParams("W", "t1")); err != nil {
				t.Fatalf("create failed: %v", err)
			}
			time.Sleep(10 * time.Millisecond)
		}

		select {
		case err := <-saved:
			if err != nil {
				t.Fatalf("save failed: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("save never fired")
		}

		// No trailing second save.
		select {
		case <-saved:
			t.Fatal("expected exactly one save for the burst")
		case <-time.After(400 * time.Millisecond):
		}

		if store.saves() != 1 {
			t.Errorf("expected 1 save call, got %d", store.saves())
		}
	})

	t.Run("first save creates, later saves update", func(t *testing.T) {
		store := &countingStore{}
		m := newTestManager(store, 30*time.Millisecond)
		defer m.Close()

		saved := make(chan error, 4)
		m.SetOnSaved(func(err error) { saved <- err })

		m.CreateWidget(kpiParams("A", "t1"))
		<-saved
		m.CreateWidget(kpiParams("B", "t1"))
		<-saved

		store.mu.Lock()
		defer store.mu.Unlock()
		if store.creates != 1 || store.updates != 1 {
			t.Errorf("expected 1 create + 1 update, got %d + %d", store.creates, store.updates)
		}
	})

	t.Run("save failure keeps in-memory state", func(t *testing.T) {
		store := &countingStore{failAll: true}
		m := newTestManager(store, 20*time.Millisecond)
		defer m.Close()

		saved := make(chan error, 1)
		m.SetOnSaved(func(err error) { saved <- err })

		m.CreateWidget(kpiParams("A", "t1"))
		if err := <-saved; err == nil {
			t.Fatal("expected save error")
		}

		if m.WidgetCount() != 1 {
			t.Error("in-memory state must survive a failed save")
		}
		if m.LastSaveError() == nil {
			t.Error("LastSaveError should report the failure")
		}
	})

	t.Run("close cancels pending save", func(t *testing.T) {
		store := &countingStore{}
		m := newTestManager(store, 50*time.Millisecond)

		m.CreateWidget(kpiParams("A", "t1"))
		m.Close()

		time.Sleep(150 * time.Millisecond)
		if store.saves() != 0 {
			t.Errorf("expected no save after Close, got %d", store.saves())
		}
	})
}

func TestUpdateLayout(t *testing.T) {
	m := newTestManager(&countingStore{}, time.Hour)
	defer m.Close()

	w, item, _ := m.CreateWidget(kpiParams("A", "t1"))

	item.X, item.Y = 4, 6
	m.UpdateLayout([]models.LayoutItem{
		item,
		{WidgetID: "ghost", X: 0, Y: 0, W: 2, H: 2}, // unknown widget dropped
	})

	state := m.State()
	if len(state.Layouts.LG) != 1 {
		t.Fatalf("expected 1 layout item, got %d", len(state.Layouts.LG))
	}
	got := state.Layouts.LG[0]
	if got.WidgetID != w.ID || got.X != 4 || got.Y != 6 {
		t.Errorf("layout not applied: %+v", got)
	}
}
