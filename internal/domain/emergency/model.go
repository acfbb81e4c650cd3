package emergency

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending      = "pending"
	StatusAcknowledged = "acknowledged"
	StatusHelpOnWay    = "help-on-way"
	StatusOnScene      = "on-scene"
	StatusResolved     = "resolved"
	StatusCancelled    = "cancelled"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAcknowledged, StatusHelpOnWay, StatusOnScene,
		StatusResolved, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed out of s.
func Terminal(s string) bool {
	return s == StatusResolved || s == StatusCancelled
}

type Emergency struct {
	ID              uuid.UUID `json:"id"`
	EmergencyNumber string    `json:"emergency_number"`
	PatientID       uuid.UUID `json:"patient_id"`
	Status          string    `json:"status"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	ContactPhone    string    `json:"contact_phone,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StatusChange is one append-only history entry. The history is never
// truncated or reordered; its last entry always matches the current
// status on the emergency row.
type StatusChange struct {
	ID          uuid.UUID `json:"id"`
	EmergencyID uuid.UUID `json:"emergency_id"`
	Status      string    `json:"status"`
	ChangedBy   uuid.UUID `json:"changed_by"`
	Note        string    `json:"note,omitempty"`
	ChangedAt   time.Time `json:"changed_at"`
}
