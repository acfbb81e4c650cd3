package medicalrecord

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

// Create writes a new encounter record. Doctors always record under
// their own profile.
func (s *Service) Create(ctx context.Context, caller scope.Caller, rec *Record) error {
	if caller.Role == scope.RoleDoctor {
		did, ok, err := s.resolver.DoctorProfile(ctx, caller)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
		rec.DoctorID = did
	} else if caller.Role != scope.RoleAdmin {
		return ErrForbidden
	}

	if rec.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if rec.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if rec.HospitalID == uuid.Nil {
		return fmt.Errorf("hospital_id is required")
	}
	if rec.Diagnosis == "" {
		return fmt.Errorf("diagnosis is required")
	}

	ok, err := s.resolver.CanAccessPatient(ctx, caller, rec.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return s.repo.Create(ctx, rec)
}

func (s *Service) Get(ctx context.Context, caller scope.Caller, id uuid.UUID) (*Record, error) {
	d, err := s.resolver.Resolve(ctx, caller, scope.MedicalRecords)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		return nil, ErrForbidden
	}
	return s.repo.GetByID(ctx, d.Filter, id)
}

// Amend appends follow-up notes to an existing record. The record itself
// is append-mostly: diagnosis and vitals never change after creation.
func (s *Service) Amend(ctx context.Context, caller scope.Caller, id uuid.UUID, notes string, followUp *uuid.UUID) error {
	if caller.Role != scope.RoleDoctor && caller.Role != scope.RoleAdmin {
		return ErrForbidden
	}
	if notes == "" && followUp == nil {
		return fmt.Errorf("nothing to amend")
	}
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	return s.repo.Amend(ctx, id, notes, followUp)
}

func (s *Service) List(ctx context.Context, caller scope.Caller, patientID *uuid.UUID, limit, offset int) ([]*Record, int, error) {
	d, err := s.resolver.Resolve(ctx, caller, scope.MedicalRecords)
	if err != nil {
		return nil, 0, err
	}
	if !d.Allowed {
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, d.Filter, patientID, limit, offset)
}
