package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/scope"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	List(ctx context.Context, f scope.Filter, hospitalID *uuid.UUID, limit, offset int) ([]*Doctor, int, error)
}
