// Package persist stores dashboard configurations.
package persist

import (
	"context"
	"fmt"

	"github.com/factory-dashboard/backend/internal/models"
)

// Store defines the interface for dashboard persistence. The
// in-memory DashboardState stays authoritative; a failed save is
// recoverable and retried on the next mutation.
type Store interface {
	List(ctx context.Context) ([]models.DashboardState, error)
	Get(ctx context.Context, id string) (models.DashboardState, error)
	Create(ctx context.Context, state models.DashboardState) (models.DashboardState, error)
	Update(ctx context.Context, state models.DashboardState) error
	Delete(ctx context.Context, id string) error
}

// NotFoundError is returned when a dashboard id does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dashboard not found: %s", e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}
