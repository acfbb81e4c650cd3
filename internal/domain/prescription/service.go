package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/notification"
	"github.com/carelink/carelink/internal/platform/scope"
)

var ErrForbidden = fmt.Errorf("forbidden")

// ContactLookup fetches the recipient details for the issue notification.
// The composition root implements it over the patient service.
type ContactLookup interface {
	PatientContact(ctx context.Context, patientID uuid.UUID) (name, email string, err error)
}

type Service struct {
	repo     Repository
	resolver *scope.Resolver
	contacts ContactLookup
	notifier *notification.Dispatcher
}

func NewService(repo Repository, resolver *scope.Resolver, contacts ContactLookup, notifier *notification.Dispatcher) *Service {
	return &Service{repo: repo, resolver: resolver, contacts: contacts, notifier: notifier}
}

// Create issues a prescription. Doctors always issue under their own
// profile; only admins may set doctor_id explicitly.
func (s *Service) Create(ctx context.Context, caller scope.Caller, p *Prescription) error {
	if caller.Role == scope.RoleDoctor {
		did, ok, err := s.resolver.DoctorProfile(ctx, caller)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
		p.DoctorID = did
	} else if caller.Role != scope.RoleAdmin {
		return ErrForbidden
	}

	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if p.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if len(p.Medications) == 0 {
		return fmt.Errorf("at least one medication is required")
	}
	for i, m := range p.Medications {
		if m.Name == "" {
			return fmt.Errorf("medications[%d]: name is required", i)
		}
	}

	ok, err := s.resolver.CanAccessPatient(ctx, caller, p.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	if p.IssuedAt.IsZero() {
		p.IssuedAt = time.Now()
	}
	if p.ExpiresAt.IsZero() {
		p.ExpiresAt = p.IssuedAt.Add(DefaultValidity)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}

	if s.notifier != nil && s.contacts != nil {
		if name, email, cerr := s.contacts.PatientContact(ctx, p.PatientID); cerr == nil && email != "" {
			s.notifier.Notify("prescription-issued", email, map[string]string{
				"patient_name": name,
				"medication":   p.Medications[0].Name,
				"expires":      p.ExpiresAt.Format("2006-01-02"),
			})
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, caller scope.Caller, id uuid.UUID) (*Prescription, error) {
	d, err := s.resolver.Resolve(ctx, caller, scope.Prescriptions)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		return nil, ErrForbidden
	}
	return s.repo.GetByID(ctx, d.Filter, id)
}

func (s *Service) List(ctx context.Context, caller scope.Caller, patientID *uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	d, err := s.resolver.Resolve(ctx, caller, scope.Prescriptions)
	if err != nil {
		return nil, 0, err
	}
	if !d.Allowed {
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, d.Filter, patientID, limit, offset)
}
