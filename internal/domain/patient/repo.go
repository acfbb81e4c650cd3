package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/scope"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, f scope.Filter, limit, offset int) ([]*Patient, int, error)
	// RecordVisit upserts the patient/hospital pair, bumping visit_count.
	RecordVisit(ctx context.Context, patientID, hospitalID uuid.UUID) error
	ListVisits(ctx context.Context, patientID uuid.UUID) ([]*HospitalVisit, error)
}
