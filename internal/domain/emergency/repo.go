package emergency

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/scope"
)

type Repository interface {
	// Create inserts the emergency and its initial history entry in one
	// transaction.
	Create(ctx context.Context, e *Emergency, initial *StatusChange) error
	GetByID(ctx context.Context, f scope.Filter, id uuid.UUID) (*Emergency, error)
	// AppendStatus updates the current status and appends the history
	// entry atomically.
	AppendStatus(ctx context.Context, id uuid.UUID, change *StatusChange) error
	History(ctx context.Context, id uuid.UUID) ([]*StatusChange, error)
	List(ctx context.Context, f scope.Filter, status string, limit, offset int) ([]*Emergency, int, error)
}
