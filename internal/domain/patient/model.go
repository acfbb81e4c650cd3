package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. Each row is linked 1:1 to an app_user
// account; patient_number is the human-readable display ID and never
// changes after creation.
type Patient struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	UserID                uuid.UUID  `db:"user_id" json:"user_id"`
	PatientNumber         string     `db:"patient_number" json:"patient_number"`
	DateOfBirth           *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender                *string    `db:"gender" json:"gender,omitempty"`
	BloodGroup            *string    `db:"blood_group" json:"blood_group,omitempty"`
	Address               *string    `db:"address" json:"address,omitempty"`
	EmergencyContactName  *string    `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string    `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	InsuranceProvider     *string    `db:"insurance_provider" json:"insurance_provider,omitempty"`
	InsuranceNumber       *string    `db:"insurance_number" json:"insurance_number,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// HospitalVisit maps to the patient_hospital_visit table. It records which
// hospitals a patient has been seen at and is the basis of hospital-scoped
// patient access.
type HospitalVisit struct {
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	HospitalID  uuid.UUID `db:"hospital_id" json:"hospital_id"`
	VisitCount  int       `db:"visit_count" json:"visit_count"`
	LastVisitAt time.Time `db:"last_visit_at" json:"last_visit_at"`
}
