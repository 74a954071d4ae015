// interfaces.go - Handler dependency interfaces for clean separation of concerns
package api

import (
	"context"
	"time"

	"github.com/factory-dashboard/backend/internal/models"
)

// TagCatalog exposes the tag/PLC registry to the handlers.
// This allows mocking in tests.
type TagCatalog interface {
	Tags() []models.Tag
	PLCs() []models.PLC
	TagIDs() []models.TagID
	Lookup(id models.TagID) (models.Tag, bool)
}

// HistoryFetcher triggers a historical fetch into the sample store.
// The returned bool reports whether the response was applied or
// discarded as stale.
type HistoryFetcher interface {
	Fetch(ctx context.Context, tagIDs []models.TagID, start, end time.Time) (bool, error)
}
