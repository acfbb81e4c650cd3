package identity

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user account can hold. Hospital accounts administer one hospital;
// doctor and patient accounts are linked 1:1 to their profile rows.
const (
	RoleAdmin    = "admin"
	RoleHospital = "hospital"
	RoleDoctor   = "doctor"
	RolePatient  = "patient"
)

// ValidRole reports whether role is one of the platform roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleHospital, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// User maps to the app_user table. Accounts are soft-disabled through
// is_active and never hard-deleted.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
