package scope

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type pair struct{ a, b uuid.UUID }

// MemoryDirectory is an in-memory ProfileDirectory for tests and
// development. All methods are safe for concurrent use.
type MemoryDirectory struct {
	mu           sync.RWMutex
	doctors      map[uuid.UUID]uuid.UUID // user -> doctor profile
	patients     map[uuid.UUID]uuid.UUID // user -> patient profile
	hospitals    map[uuid.UUID]uuid.UUID // admin user -> hospital
	appointments map[pair]bool           // (doctor, patient)
	visits       map[pair]bool           // (patient, hospital)
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		doctors:      make(map[uuid.UUID]uuid.UUID),
		patients:     make(map[uuid.UUID]uuid.UUID),
		hospitals:    make(map[uuid.UUID]uuid.UUID),
		appointments: make(map[pair]bool),
		visits:       make(map[pair]bool),
	}
}

func (d *MemoryDirectory) AddDoctor(userID, doctorID uuid.UUID) {
	d.mu.Lock()
	d.doctors[userID] = doctorID
	d.mu.Unlock()
}

func (d *MemoryDirectory) AddPatient(userID, patientID uuid.UUID) {
	d.mu.Lock()
	d.patients[userID] = patientID
	d.mu.Unlock()
}

func (d *MemoryDirectory) AddHospitalAdmin(userID, hospitalID uuid.UUID) {
	d.mu.Lock()
	d.hospitals[userID] = hospitalID
	d.mu.Unlock()
}

func (d *MemoryDirectory) AddAppointment(doctorID, patientID uuid.UUID) {
	d.mu.Lock()
	d.appointments[pair{doctorID, patientID}] = true
	d.mu.Unlock()
}

func (d *MemoryDirectory) AddVisit(patientID, hospitalID uuid.UUID) {
	d.mu.Lock()
	d.visits[pair{patientID, hospitalID}] = true
	d.mu.Unlock()
}

func (d *MemoryDirectory) DoctorIDByUser(_ context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.doctors[userID]
	return id, ok, nil
}

func (d *MemoryDirectory) PatientIDByUser(_ context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.patients[userID]
	return id, ok, nil
}

func (d *MemoryDirectory) HospitalIDByAdminUser(_ context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.hospitals[userID]
	return id, ok, nil
}

func (d *MemoryDirectory) HasAppointment(_ context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.appointments[pair{doctorID, patientID}], nil
}

func (d *MemoryDirectory) HasVisited(_ context.Context, patientID, hospitalID uuid.UUID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.visits[pair{patientID, hospitalID}], nil
}
