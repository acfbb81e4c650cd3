package order

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
	ErrNotAPharmacy  = fmt.Errorf("hospital does not operate a pharmacy")
	ErrTerminalState = fmt.Errorf("order is in a terminal state")
)

// PharmacyChecker answers whether a hospital operates a pharmacy. The
// composition root implements it over the hospital service.
type PharmacyChecker interface {
	HasPharmacy(ctx context.Context, hospitalID uuid.UUID) (bool, error)
}

type Service struct {
	repo       Repository
	resolver   *scope.Resolver
	pharmacies PharmacyChecker
	numbers    sequence.Generator
	notifier   *notification.Dispatcher
}

func NewService(repo Repository, resolver *scope.Resolver, pharmacies PharmacyChecker, numbers sequence.Generator, notifier *notification.Dispatcher) *Service {
	return &Service{repo: repo, resolver: resolver, pharmacies: pharmacies, numbers: numbers, notifier: notifier}
}

// Create places a pharmacy order. Patients order for themselves; the
// target hospital must operate a pharmacy.
func (s *Service) Create(ctx context.Context, caller scope.Caller, o *Order) error {
	switch caller.Role {
	case scope.RolePatient:
		pid, ok, err := s.resolver.PatientProfile(ctx, caller)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
		if o.PatientID != uuid.Nil && o.PatientID != pid {
			return ErrForbidden
		}
		o.PatientID = pid
	case scope.RoleAdmin:
		if o.PatientID == uuid.Nil {
			return fmt.Errorf("patient_id is required")
		}
	default:
		return ErrForbidden
	}

	if o.PharmacyID == uuid.Nil {
		return fmt.Errorf("pharmacy_id is required")
	}
	ok, err := s.pharmacies.HasPharmacy(ctx, o.PharmacyID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAPharmacy
	}

	number, err := s.numbers.Next(ctx, sequence.PrefixOrder)
	if err != nil {
		return fmt.Errorf("mint order number: %w", err)
	}
	o.OrderNumber = number
	o.Status = StatusPending

	initial := &StatusChange{Status: StatusPending, ChangedBy: caller.UserID}
	if err := s.repo.Create(ctx, o, initial); err != nil {
		return err
	}
	s.notifyStatus(o)
	return nil
}

func (s *Service) Get(ctx context.Context, caller scope.Caller, id uuid.UUID) (*Order, error) {
	d, err := s.resolver.Resolve(ctx, caller, scope.Orders)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		return nil, ErrForbidden
	}
	return s.repo.GetByID(ctx, d.Filter, id)
}

// UpdateStatus appends a history entry and moves the order forward.
// Delivered and cancelled are terminal.
func (s *Service) UpdateStatus(ctx context.Context, caller scope.Caller, id uuid.UUID, status, note string) (*Order, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	o, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if Terminal(o.Status) {
		return nil, ErrTerminalState
	}

	change := &StatusChange{Status: status, ChangedBy: caller.UserID, Note: note}
	if err := s.repo.AppendStatus(ctx, id, change); err != nil {
		return nil, err
	}
	o.Status = status
	s.notifyStatus(o)
	return o, nil
}

func (s *Service) History(ctx context.Context, caller scope.Caller, id uuid.UUID) ([]*StatusChange, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

func (s *Service) List(ctx context.Context, caller scope.Caller, status string, limit, offset int) ([]*Order, int, error) {
	if status != "" && !ValidStatus(status) {
		return nil, 0, fmt.Errorf("invalid status %q", status)
	}
	d, err := s.resolver.Resolve(ctx, caller, scope.Orders)
	if err != nil {
		return nil, 0, err
	}
	if !d.Allowed {
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, d.Filter, status, limit, offset)
}

func (s *Service) notifyStatus(o *Order) {
	if s.notifier == nil || o.ContactPhone == "" {
		return
	}
	s.notifier.Notify("order-status", o.ContactPhone, map[string]string{
		"number": o.OrderNumber,
		"status": o.Status,
	})
}
