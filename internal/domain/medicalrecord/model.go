package medicalrecord

import (
	"time"

	"github.com/google/uuid"
)

// Record is one clinical encounter entry. Vitals is free-form JSONB
// (blood pressure, temperature, weight and whatever else was measured).
type Record struct {
	ID               uuid.UUID              `json:"id"`
	PatientID        uuid.UUID              `json:"patient_id"`
	DoctorID         uuid.UUID              `json:"doctor_id"`
	HospitalID       uuid.UUID              `json:"hospital_id"`
	AppointmentID    *uuid.UUID             `json:"appointment_id,omitempty"`
	Diagnosis        string                 `json:"diagnosis"`
	Vitals           map[string]interface{} `json:"vitals,omitempty"`
	Notes            string                 `json:"notes,omitempty"`
	FollowUpDoctorID *uuid.UUID             `json:"follow_up_doctor_id,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}
