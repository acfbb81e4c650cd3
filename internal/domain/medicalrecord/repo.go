package medicalrecord

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/scope"
)

type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, f scope.Filter, id uuid.UUID) (*Record, error)
	// Amend updates the follow-up pointer and appends to notes; diagnosis
	// and vitals are immutable once written.
	Amend(ctx context.Context, id uuid.UUID, notes string, followUp *uuid.UUID) error
	List(ctx context.Context, f scope.Filter, patientID *uuid.UUID, limit, offset int) ([]*Record, int, error)
}
