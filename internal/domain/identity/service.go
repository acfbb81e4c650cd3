package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/carelink/carelink/internal/platform/notification"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is deactivated")
)

type Service struct {
	users    UserRepository
	notifier *notification.Dispatcher
}

func NewService(users UserRepository, notifier *notification.Dispatcher) *Service {
	return &Service{users: users, notifier: notifier}
}

// RegisterInput carries the fields accepted at account creation.
type RegisterInput struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates an active account immediately; there is no email
// verification step. The welcome notification is fire-and-forget.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if !ValidRole(in.Role) {
		return nil, fmt.Errorf("invalid role %q", in.Role)
	}
	if in.FirstName == "" {
		return nil, fmt.Errorf("first_name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Role:         in.Role,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify("account-created", u.Email, map[string]string{
			"name": u.FirstName,
			"role": u.Role,
		})
	}
	return u, nil
}

// Authenticate verifies credentials and returns the account. A wrong email
// and a wrong password produce the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	return s.users.Update(ctx, u)
}

// Deactivate soft-disables an account. User rows are never deleted.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.users.SetActive(ctx, id, false)
}

func (s *Service) Reactivate(ctx context.Context, id uuid.UUID) error {
	return s.users.SetActive(ctx, id, true)
}

func (s *Service) List(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	if role != "" && !ValidRole(role) {
		return nil, 0, fmt.Errorf("invalid role %q", role)
	}
	return s.users.List(ctx, role, limit, offset)
}
