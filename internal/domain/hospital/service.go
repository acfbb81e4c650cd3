package hospital

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/notification"
	"github.com/carelink/carelink/internal/platform/scope"
)

var ErrForbidden = fmt.Errorf("forbidden")

type Service struct {
	repo     Repository
	resolver *scope.Resolver
	notifier *notification.Dispatcher
}

func NewService(repo Repository, resolver *scope.Resolver, notifier *notification.Dispatcher) *Service {
	return &Service{repo: repo, resolver: resolver, notifier: notifier}
}

// Create registers a hospital in unapproved state; only a platform admin
// approval makes it publicly visible.
func (s *Service) Create(ctx context.Context, h *Hospital) error {
	if h.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if h.Name == "" {
		return fmt.Errorf("name is required")
	}
	h.IsApproved = false
	return s.repo.Create(ctx, h)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByAdmin(ctx context.Context, userID uuid.UUID) (*Hospital, error) {
	return s.repo.GetByAdminUser(ctx, userID)
}

func (s *Service) Update(ctx context.Context, caller scope.Caller, h *Hospital) error {
	d, err := s.resolver.Resolve(ctx, caller, scope.Hospitals)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return ErrForbidden
	}
	if !d.Filter.Empty() && !filterAllowsID(d.Filter, h.ID) {
		return ErrForbidden
	}
	return s.repo.Update(ctx, h)
}

func filterAllowsID(f scope.Filter, id uuid.UUID) bool {
	for _, c := range f.Conds {
		if c.Column == "id" && c.Op == scope.OpEq {
			return c.Value.(uuid.UUID) == id
		}
	}
	return true
}

// Approve flips public visibility. Admin only (enforced at the route).
func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetApproved(ctx, id, true); err != nil {
		return err
	}
	if s.notifier != nil {
		if h, err := s.repo.GetByID(ctx, id); err == nil {
			s.notifier.Notify("hospital-approved", h.Email, map[string]string{
				"name":          h.Name,
				"hospital_name": h.Name,
			})
		}
	}
	return nil
}

// List applies the caller's scope: admin sees all, a hospital admin sees
// their own row. Doctors and patients use ListApproved.
func (s *Service) List(ctx context.Context, caller scope.Caller, limit, offset int) ([]*Hospital, int, error) {
	d, err := s.resolver.Resolve(ctx, caller, scope.Hospitals)
	if err != nil {
		return nil, 0, err
	}
	if !d.Allowed {
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, d.Filter, limit, offset)
}

// ListApproved is the public, patient-facing directory. Unapproved
// hospitals never appear here.
func (s *Service) ListApproved(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	return s.repo.ListApproved(ctx, limit, offset)
}

func (s *Service) AddDepartment(ctx context.Context, caller scope.Caller, d *Department) error {
	if d.HospitalID == uuid.Nil {
		return fmt.Errorf("hospital_id is required")
	}
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	dec, err := s.resolver.Resolve(ctx, caller, scope.Hospitals)
	if err != nil {
		return err
	}
	if !dec.Allowed || (!dec.Filter.Empty() && !filterAllowsID(dec.Filter, d.HospitalID)) {
		return ErrForbidden
	}
	return s.repo.AddDepartment(ctx, d)
}

func (s *Service) ListDepartments(ctx context.Context, hospitalID uuid.UUID) ([]*Department, error) {
	return s.repo.ListDepartments(ctx, hospitalID)
}

func (s *Service) DeleteDepartment(ctx context.Context, caller scope.Caller, hospitalID, departmentID uuid.UUID) error {
	dec, err := s.resolver.Resolve(ctx, caller, scope.Hospitals)
	if err != nil {
		return err
	}
	if !dec.Allowed || (!dec.Filter.Empty() && !filterAllowsID(dec.Filter, hospitalID)) {
		return ErrForbidden
	}
	return s.repo.DeleteDepartment(ctx, departmentID)
}
