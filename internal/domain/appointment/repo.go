package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/scope"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, f scope.Filter, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, f scope.Filter, status string, limit, offset int) ([]*Appointment, int, error)
}
