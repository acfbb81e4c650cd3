package hospital

import (
	"time"

	"github.com/google/uuid"
)

// Hospital maps to the hospital table. is_approved gates public
// visibility: unapproved hospitals are invisible to patients but remain
// manageable by their own admin and platform admins. Pharmacies are
// hospitals flagged has_pharmacy.
type Hospital struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Address     string    `db:"address" json:"address"`
	Phone       string    `db:"phone" json:"phone"`
	Email       string    `db:"email" json:"email"`
	IsApproved  bool      `db:"is_approved" json:"is_approved"`
	HasPharmacy bool      `db:"has_pharmacy" json:"has_pharmacy"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Department maps to the department table.
type Department struct {
	ID          uuid.UUID `db:"id" json:"id"`
	HospitalID  uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
