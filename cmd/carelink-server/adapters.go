package main

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/appointment"
	"github.com/carelink/carelink/internal/domain/hospital"
	"github.com/carelink/carelink/internal/domain/identity"
	"github.com/carelink/carelink/internal/domain/patient"
)

// patientSnapshotter assembles the demographics JSONB captured on each
// appointment from the patient profile and its user account.
type patientSnapshotter struct {
	patients patient.Repository
	users    *identity.Service
}

var _ appointment.Snapshotter = (*patientSnapshotter)(nil)

func (a *patientSnapshotter) Snapshot(ctx context.Context, patientID uuid.UUID) (*appointment.PatientDetails, error) {
	p, err := a.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	u, err := a.users.Get(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	d := &appointment.PatientDetails{
		FullName:      strings.TrimSpace(u.FirstName + " " + u.LastName),
		Phone:         u.Phone,
		Email:         u.Email,
		PatientNumber: p.PatientNumber,
	}
	if p.DateOfBirth != nil {
		d.DateOfBirth = p.DateOfBirth.Format("2006-01-02")
	}
	if p.Gender != nil {
		d.Gender = *p.Gender
	}
	if p.BloodGroup != nil {
		d.BloodGroup = *p.BloodGroup
	}
	return d, nil
}

// patientContacts resolves a patient's name and email for notifications.
type patientContacts struct {
	patients patient.Repository
	users    *identity.Service
}

func (a *patientContacts) PatientContact(ctx context.Context, patientID uuid.UUID) (string, string, error) {
	p, err := a.patients.GetByID(ctx, patientID)
	if err != nil {
		return "", "", err
	}
	u, err := a.users.Get(ctx, p.UserID)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName), u.Email, nil
}

// pharmacyDirectory answers whether a hospital operates a pharmacy.
type pharmacyDirectory struct {
	hospitals *hospital.Service
}

func (a *pharmacyDirectory) HasPharmacy(ctx context.Context, hospitalID uuid.UUID) (bool, error) {
	h, err := a.hospitals.Get(ctx, hospitalID)
	if err != nil {
		return false, err
	}
	return h.HasPharmacy, nil
}
