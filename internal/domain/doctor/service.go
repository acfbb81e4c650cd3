package doctor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/scope"
)

var ErrForbidden = fmt.Errorf("forbidden")

type Service struct {
	repo     Repository
	resolver *scope.Resolver
}

func NewService(repo Repository, resolver *scope.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

func (s *Service) Create(ctx context.Context, d *Doctor) error {
	if d.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if d.HospitalID == uuid.Nil {
		return fmt.Errorf("hospital_id is required")
	}
	if d.DepartmentID == uuid.Nil {
		return fmt.Errorf("department_id is required")
	}
	if d.LicenseNumber == "" {
		return fmt.Errorf("license_number is required")
	}
	return s.repo.Create(ctx, d)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) Update(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	return s.repo.Update(ctx, d)
}

// List applies the caller's role scope; a hospital admin sees their own
// doctors, a doctor sees themselves, patients browse by hospital.
func (s *Service) List(ctx context.Context, caller scope.Caller, hospitalID *uuid.UUID, limit, offset int) ([]*Doctor, int, error) {
	d, err := s.resolver.Resolve(ctx, caller, scope.Doctors)
	if err != nil {
		return nil, 0, err
	}
	if !d.Allowed {
		// Patients may browse doctors of a hospital to book appointments.
		if caller.Role == scope.RolePatient && hospitalID != nil {
			return s.repo.List(ctx, scope.Filter{}, hospitalID, limit, offset)
		}
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, d.Filter, hospitalID, limit, offset)
}
