package emergency

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/notification"
	"github.com/carelink/carelink/internal/platform/scope"
	"github.com/carelink/carelink/internal/platform/sequence"
)

var (
	ErrForbidden     = fmt.Errorf("forbidden")
	ErrTerminalState = fmt.Errorf("emergency is in a terminal state")
)

type Service struct {
	repo     Repository
	resolver *scope.Resolver
	numbers  sequence.Generator
	notifier *notification.Dispatcher
}

func NewService(repo Repository, resolver *scope.Resolver, numbers sequence.Generator, notifier *notification.Dispatcher) *Service {
	return &Service{repo: repo, resolver: resolver, numbers: numbers, notifier: notifier}
}

// Create raises an emergency. Patients raise for themselves; staff roles
// may raise on behalf of a patient within their scope. The emergency
// starts as pending with a single history entry.
func (s *Service) Create(ctx context.Context, caller scope.Caller, e *Emergency) error {
	switch caller.Role {
	case scope.RolePatient:
		pid, ok, err := s.resolver.PatientProfile(ctx, caller)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
		if e.PatientID != uuid.Nil && e.PatientID != pid {
			return ErrForbidden
		}
		e.PatientID = pid
	case scope.RoleAdmin, scope.RoleHospital, scope.RoleDoctor:
		if e.PatientID == uuid.Nil {
			return fmt.Errorf("patient_id is required")
		}
		ok, err := s.resolver.CanAccessPatient(ctx, caller, e.PatientID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}

	number, err := s.numbers.Next(ctx, sequence.PrefixEmergency)
	if err != nil {
		return fmt.Errorf("mint emergency number: %w", err)
	}
	e.EmergencyNumber = number
	e.Status = StatusPending

	initial := &StatusChange{Status: StatusPending, ChangedBy: caller.UserID}
	if err := s.repo.Create(ctx, e, initial); err != nil {
		return err
	}
	s.notifyStatus(e)
	return nil
}

func (s *Service) Get(ctx context.Context, caller scope.Caller, id uuid.UUID) (*Emergency, error) {
	d, err := s.resolver.Resolve(ctx, caller, scope.Emergencies)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		return nil, ErrForbidden
	}
	return s.repo.GetByID(ctx, d.Filter, id)
}

// UpdateStatus appends a history entry and moves the emergency forward.
// Resolved and cancelled are terminal: once reached, every further
// transition is rejected.
func (s *Service) UpdateStatus(ctx context.Context, caller scope.Caller, id uuid.UUID, status, note string) (*Emergency, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	e, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if Terminal(e.Status) {
		return nil, ErrTerminalState
	}

	change := &StatusChange{Status: status, ChangedBy: caller.UserID, Note: note}
	if err := s.repo.AppendStatus(ctx, id, change); err != nil {
		return nil, err
	}
	e.Status = status
	s.notifyStatus(e)
	return e, nil
}

func (s *Service) History(ctx context.Context, caller scope.Caller, id uuid.UUID) ([]*StatusChange, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

func (s *Service) List(ctx context.Context, caller scope.Caller, status string, limit, offset int) ([]*Emergency, int, error) {
	if status != "" && !ValidStatus(status) {
		return nil, 0, fmt.Errorf("invalid status %q", status)
	}
	d, err := s.resolver.Resolve(ctx, caller, scope.Emergencies)
	if err != nil {
		return nil, 0, err
	}
	if !d.Allowed {
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, d.Filter, status, limit, offset)
}

func (s *Service) notifyStatus(e *Emergency) {
	if s.notifier == nil || e.ContactPhone == "" {
		return
	}
	s.notifier.Notify("emergency-status", e.ContactPhone, map[string]string{
		"number": e.EmergencyNumber,
		"status": e.Status,
	})
}
