package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor maps to the doctor table. Each doctor belongs to exactly one
// hospital and department; license_number is unique across the tenant.
// Other tables reference this profile ID, never the doctor's user ID.
type Doctor struct {
	ID              uuid.UUID `db:"id" json:"id"`
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	HospitalID      uuid.UUID `db:"hospital_id" json:"hospital_id"`
	DepartmentID    uuid.UUID `db:"department_id" json:"department_id"`
	Specialization  string    `db:"specialization" json:"specialization"`
	LicenseNumber   string    `db:"license_number" json:"license_number"`
	ConsultationFee float64   `db:"consultation_fee" json:"consultation_fee"`
	Bio             *string   `db:"bio" json:"bio,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
