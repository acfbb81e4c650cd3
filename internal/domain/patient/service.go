package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/scope"
	"github.com/carelink/carelink/internal/platform/sequence"
)

// ErrForbidden is returned when the caller's scope does not cover the
// requested row. Handlers map it to 403 with a generic message.
var ErrForbidden = fmt.Errorf("forbidden")

type Service struct {
	repo     Repository
	resolver *scope.Resolver
	numbers  sequence.Generator
}

func NewService(repo Repository, resolver *scope.Resolver, numbers sequence.Generator) *Service {
	return &Service{repo: repo, resolver: resolver, numbers: numbers}
}

// Create provisions a patient profile for a user account, minting the
// immutable patient_number.
func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	number, err := s.numbers.Next(ctx, sequence.PrefixPatient)
	if err != nil {
		return fmt.Errorf("assign patient number: %w", err)
	}
	p.PatientNumber = number
	return s.repo.Create(ctx, p)
}

// Get returns a patient the caller may access. The authorization check
// runs before any existence signal escapes: a caller outside the patient's
// scope gets ErrForbidden whether or not the row exists.
func (s *Service) Get(ctx context.Context, caller scope.Caller, id uuid.UUID) (*Patient, error) {
	ok, err := s.resolver.CanAccessPatient(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) Update(ctx context.Context, caller scope.Caller, p *Patient) error {
	ok, err := s.resolver.CanAccessPatient(ctx, caller, p.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return s.repo.Update(ctx, p)
}

// List returns the patients visible to the caller under their role scope.
func (s *Service) List(ctx context.Context, caller scope.Caller, limit, offset int) ([]*Patient, int, error) {
	d, err := s.resolver.Resolve(ctx, caller, scope.Patients)
	if err != nil {
		return nil, 0, err
	}
	if !d.Allowed {
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, d.Filter, limit, offset)
}

// RecordVisit marks the patient as seen at the hospital, making them
// visible to that hospital's scope from now on.
func (s *Service) RecordVisit(ctx context.Context, patientID, hospitalID uuid.UUID) error {
	if patientID == uuid.Nil || hospitalID == uuid.Nil {
		return fmt.Errorf("patient_id and hospital_id are required")
	}
	return s.repo.RecordVisit(ctx, patientID, hospitalID)
}

func (s *Service) VisitedHospitals(ctx context.Context, caller scope.Caller, patientID uuid.UUID) ([]*HospitalVisit, error) {
	ok, err := s.resolver.CanAccessPatient(ctx, caller, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.repo.ListVisits(ctx, patientID)
}
