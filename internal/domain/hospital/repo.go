package hospital

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/scope"
)

type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	GetByAdminUser(ctx context.Context, userID uuid.UUID) (*Hospital, error)
	Update(ctx context.Context, h *Hospital) error
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
	List(ctx context.Context, f scope.Filter, limit, offset int) ([]*Hospital, int, error)
	ListApproved(ctx context.Context, limit, offset int) ([]*Hospital, int, error)
	// Departments
	AddDepartment(ctx context.Context, d *Department) error
	ListDepartments(ctx context.Context, hospitalID uuid.UUID) ([]*Department, error)
	DeleteDepartment(ctx context.Context, id uuid.UUID) error
}
