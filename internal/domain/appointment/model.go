package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusNoShow    = "no-show"
)

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// PatientDetails is the demographic snapshot captured at booking time and
// stored as JSONB. It is never refreshed afterwards, so the appointment
// reflects the patient as they were when they booked.
type PatientDetails struct {
	FullName      string `json:"full_name"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	DateOfBirth   string `json:"date_of_birth,omitempty"`
	Gender        string `json:"gender,omitempty"`
	BloodGroup    string `json:"blood_group,omitempty"`
	PatientNumber string `json:"patient_number,omitempty"`
}

// Appointment maps to the appointment table. doctor_id references the
// doctor profile row, never the doctor's user account.
type Appointment struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	PatientID      uuid.UUID       `db:"patient_id" json:"patient_id"`
	DoctorID       uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	HospitalID     uuid.UUID       `db:"hospital_id" json:"hospital_id"`
	DepartmentID   *uuid.UUID      `db:"department_id" json:"department_id,omitempty"`
	ScheduledAt    time.Time       `db:"scheduled_at" json:"scheduled_at"`
	Type           string          `db:"type" json:"type"`
	Status         string          `db:"status" json:"status"`
	Fee            float64         `db:"fee" json:"fee"`
	Reason         *string         `db:"reason" json:"reason,omitempty"`
	PatientDetails *PatientDetails `db:"patient_details" json:"patient_details,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}
