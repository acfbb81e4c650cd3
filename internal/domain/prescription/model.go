package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Medication is one line item on a prescription, stored as JSONB.
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

type Prescription struct {
	ID            uuid.UUID    `json:"id"`
	PatientID     uuid.UUID    `json:"patient_id"`
	DoctorID      uuid.UUID    `json:"doctor_id"`
	AppointmentID *uuid.UUID   `json:"appointment_id,omitempty"`
	Medications   []Medication `json:"medications"`
	Notes         string       `json:"notes,omitempty"`
	IssuedAt      time.Time    `json:"issued_at"`
	ExpiresAt     time.Time    `json:"expires_at"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// DefaultValidity is applied when no expiry is supplied at issue time.
const DefaultValidity = 30 * 24 * time.Hour
