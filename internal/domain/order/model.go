package order

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending        = "pending"
	StatusConfirmed      = "confirmed"
	StatusPreparing      = "preparing"
	StatusReady          = "ready"
	StatusOutForDelivery = "out-for-delivery"
	StatusDelivered      = "delivered"
	StatusCancelled      = "cancelled"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed out of s.
func Terminal(s string) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Order is a pharmacy order. The pharmacy is a hospital with its
// has_pharmacy flag set.
type Order struct {
	ID              uuid.UUID  `json:"id"`
	OrderNumber     string     `json:"order_number"`
	PatientID       uuid.UUID  `json:"patient_id"`
	PharmacyID      uuid.UUID  `json:"pharmacy_id"`
	PrescriptionID  *uuid.UUID `json:"prescription_id,omitempty"`
	Status          string     `json:"status"`
	DeliveryAddress string     `json:"delivery_address,omitempty"`
	ContactPhone    string     `json:"contact_phone,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// StatusChange is one append-only history entry; same contract as the
// emergency history.
type StatusChange struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	Status    string    `json:"status"`
	ChangedBy uuid.UUID `json:"changed_by"`
	Note      string    `json:"note,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}
