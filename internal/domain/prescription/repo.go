package prescription

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/scope"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	// GetByID applies the caller's scope filter in the query itself so a
	// row outside scope is indistinguishable from a missing one.
	GetByID(ctx context.Context, f scope.Filter, id uuid.UUID) (*Prescription, error)
	List(ctx context.Context, f scope.Filter, patientID *uuid.UUID, limit, offset int) ([]*Prescription, int, error)
}
