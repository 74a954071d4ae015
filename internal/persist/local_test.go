package persist

import (
	"context"
	"testing"

	"github.com/factory-dashboard/backend/internal/models"
)

func TestLocalStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	state := models.DashboardState{
		Name: "Line 1",
		Widgets: []models.Widget{
			{ID: "w1", Type: models.WidgetKPI, Title: "Output", TagIDs: []models.TagID{"1"}},
		},
		Layouts: models.Layouts{LG: []models.LayoutItem{{WidgetID: "w1", W: 3, H: 2}}},
	}

	t.Run("create assigns id", func(t *testing.T) {
		created, err := store.Create(ctx, state)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ID == "" {
			t.Fatal("expected id to be assigned")
		}
		state = created
	})

	t.Run("get round-trips", func(t *testing.T) {
		got, err := store.Get(ctx, state.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Name != "Line 1" || len(got.Widgets) != 1 {
			t.Errorf("unexpected state: %+v", got)
		}
		if got.Widgets[0].TagIDs[0] != "1" {
			t.Errorf("tag ids not preserved: %v", got.Widgets[0].TagIDs)
		}
	})

	t.Run("update overwrites", func(t *testing.T) {
		state.Name = "Line 1 (renamed)"
		if err := store.Update(ctx, state); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		got, _ := store.Get(ctx, state.ID)
		if got.Name != "Line 1 (renamed)" {
			t.Errorf("expected renamed dashboard, got %q", got.Name)
		}
	})

	t.Run("list includes dashboard", func(t *testing.T) {
		list, err := store.List(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected 1 dashboard, got %d", len(list))
		}
	})

	t.Run("delete removes", func(t *testing.T) {
		if err := store.Delete(ctx, state.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := store.Get(ctx, state.ID); !IsNotFound(err) {
			t.Errorf("expected not-found after delete, got %v", err)
		}
	})

	t.Run("update unknown id is not-found", func(t *testing.T) {
		err := store.Update(ctx, models.DashboardState{ID: "missing", Name: "x"})
		if !IsNotFound(err) {
			t.Errorf("expected not-found, got %v", err)
		}
	})
}
