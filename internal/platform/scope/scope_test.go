package scope

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

// mockDirectory wires a small fixture world: one hospital admin, one doctor
// with an appointment link to one patient, and one unlinked doctor.
type mockDirectory struct {
	doctors      map[uuid.UUID]uuid.UUID // user -> doctor profile
	patients     map[uuid.UUID]uuid.UUID // user -> patient profile
	hospitals    map[uuid.UUID]uuid.UUID // user -> hospital
	appointments map[[2]uuid.UUID]bool   // (doctor, patient) -> linked
	visits       map[[2]uuid.UUID]bool   // (patient, hospital) -> visited
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		doctors:      make(map[uuid.UUID]uuid.UUID),
		patients:     make(map[uuid.UUID]uuid.UUID),
		hospitals:    make(map[uuid.UUID]uuid.UUID),
		appointments: make(map[[2]uuid.UUID]bool),
		visits:       make(map[[2]uuid.UUID]bool),
	}
}

func (m *mockDirectory) DoctorIDByUser(_ context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	id, ok := m.doctors[userID]
	return id, ok, nil
}

func (m *mockDirectory) PatientIDByUser(_ context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	id, ok := m.patients[userID]
	return id, ok, nil
}

func (m *mockDirectory) HospitalIDByAdminUser(_ context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	id, ok := m.hospitals[userID]
	return id, ok, nil
}

func (m *mockDirectory) HasAppointment(_ context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	return m.appointments[[2]uuid.UUID{doctorID, patientID}], nil
}

func (m *mockDirectory) HasVisited(_ context.Context, patientID, hospitalID uuid.UUID) (bool, error) {
	return m.visits[[2]uuid.UUID{patientID, hospitalID}], nil
}

func TestResolve_AdminSeesEverything(t *testing.T) {
	r := NewResolver(newMockDirectory())
	caller := Caller{UserID: uuid.New(), Role: RoleAdmin}

	for _, res := range []Resource{Patients, Doctors, Hospitals, Appointments, Prescriptions, MedicalRecords, Emergencies, Orders} {
		d, err := r.Resolve(context.Background(), caller, res)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", res, err)
		}
		if !d.Allowed {
			t.Errorf("%s: admin must be allowed", res)
		}
		if !d.Filter.Empty() {
			t.Errorf("%s: admin filter must be empty", res)
		}
	}
}

func TestResolve_PermissionMatrix(t *testing.T) {
	dir := newMockDirectory()
	doctorUser, patientUser, hospitalUser := uuid.New(), uuid.New(), uuid.New()
	dir.doctors[doctorUser] = uuid.New()
	dir.patients[patientUser] = uuid.New()
	dir.hospitals[hospitalUser] = uuid.New()
	r := NewResolver(dir)

	cases := []struct {
		role    Role
		user    uuid.UUID
		res     Resource
		allowed bool
	}{
		{RoleHospital, hospitalUser, Patients, true},
		{RoleHospital, hospitalUser, Doctors, true},
		{RoleHospital, hospitalUser, Appointments, true},
		{RoleHospital, hospitalUser, Prescriptions, true},
		{RoleHospital, hospitalUser, MedicalRecords, true},
		{RoleHospital, hospitalUser, Emergencies, true},
		{RoleHospital, hospitalUser, Orders, true},
		{RoleHospital, hospitalUser, Hospitals, true},
		{RoleDoctor, doctorUser, Appointments, true},
		{RoleDoctor, doctorUser, Prescriptions, true},
		{RoleDoctor, doctorUser, MedicalRecords, true},
		{RoleDoctor, doctorUser, Patients, true},
		{RoleDoctor, doctorUser, Emergencies, true},
		{RoleDoctor, doctorUser, Hospitals, false},
		{RoleDoctor, doctorUser, Orders, false},
		{RolePatient, patientUser, Patients, true},
		{RolePatient, patientUser, Appointments, true},
		{RolePatient, patientUser, Prescriptions, true},
		{RolePatient, patientUser, MedicalRecords, true},
		{RolePatient, patientUser, Emergencies, true},
		{RolePatient, patientUser, Orders, true},
		{RolePatient, patientUser, Doctors, false},
		{RolePatient, patientUser, Hospitals, false},
	}

	for _, tc := range cases {
		d, err := r.Resolve(context.Background(), Caller{UserID: tc.user, Role: tc.role}, tc.res)
		if err != nil {
			t.Fatalf("%s/%s: unexpected error: %v", tc.role, tc.res, err)
		}
		if d.Allowed != tc.allowed {
			t.Errorf("%s/%s: allowed = %v, want %v", tc.role, tc.res, d.Allowed, tc.allowed)
		}
		if d.Allowed && d.Filter.Empty() {
			t.Errorf("%s/%s: non-admin decision must carry a filter", tc.role, tc.res)
		}
	}
}

func TestResolve_MissingProfileIsForbidden(t *testing.T) {
	r := NewResolver(newMockDirectory())

	for _, role := range []Role{RoleHospital, RoleDoctor, RolePatient} {
		d, err := r.Resolve(context.Background(), Caller{UserID: uuid.New(), Role: role}, Appointments)
		if err != nil {
			t.Fatalf("%s: missing profile must not be an error: %v", role, err)
		}
		if d.Allowed {
			t.Errorf("%s: missing profile must resolve to forbidden", role)
		}
	}
}

func TestResolve_UnknownRoleForbidden(t *testing.T) {
	r := NewResolver(newMockDirectory())
	d, err := r.Resolve(context.Background(), Caller{UserID: uuid.New(), Role: "pharmacist"}, Patients)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Error("unknown role must be forbidden")
	}
}

func TestCanAccessPatient_DoctorNeedsAppointmentLink(t *testing.T) {
	dir := newMockDirectory()
	doctorUser, doctor2User := uuid.New(), uuid.New()
	doctorID, doctor2ID := uuid.New(), uuid.New()
	patientID := uuid.New()
	dir.doctors[doctorUser] = doctorID
	dir.doctors[doctor2User] = doctor2ID
	dir.appointments[[2]uuid.UUID{doctorID, patientID}] = true
	r := NewResolver(dir)

	ok, err := r.CanAccessPatient(context.Background(), Caller{UserID: doctorUser, Role: RoleDoctor}, patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("doctor with appointment link must be permitted")
	}

	ok, err = r.CanAccessPatient(context.Background(), Caller{UserID: doctor2User, Role: RoleDoctor}, patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("doctor without appointment link must be forbidden")
	}
}

func TestCanAccessPatient_PatientSelfOnly(t *testing.T) {
	dir := newMockDirectory()
	patientUser := uuid.New()
	patientID := uuid.New()
	dir.patients[patientUser] = patientID
	r := NewResolver(dir)

	ok, _ := r.CanAccessPatient(context.Background(), Caller{UserID: patientUser, Role: RolePatient}, patientID)
	if !ok {
		t.Error("patient must access own record")
	}
	ok, _ = r.CanAccessPatient(context.Background(), Caller{UserID: patientUser, Role: RolePatient}, uuid.New())
	if ok {
		t.Error("patient must not access another record")
	}
}

func TestCanAccessPatient_HospitalNeedsVisit(t *testing.T) {
	dir := newMockDirectory()
	hospitalUser := uuid.New()
	hospitalID := uuid.New()
	patientID := uuid.New()
	dir.hospitals[hospitalUser] = hospitalID
	dir.visits[[2]uuid.UUID{patientID, hospitalID}] = true
	r := NewResolver(dir)

	ok, _ := r.CanAccessPatient(context.Background(), Caller{UserID: hospitalUser, Role: RoleHospital}, patientID)
	if !ok {
		t.Error("hospital must access a visited patient")
	}
	ok, _ = r.CanAccessPatient(context.Background(), Caller{UserID: hospitalUser, Role: RoleHospital}, uuid.New())
	if ok {
		t.Error("hospital must not access an unvisited patient")
	}
}

func TestFilter_SQL(t *testing.T) {
	hid := uuid.New()
	f := Filter{Conds: []Cond{Eq("hospital_id", hid)}}
	clause, args := f.SQL(2)
	if clause != "hospital_id = $2" {
		t.Errorf("clause = %q", clause)
	}
	if len(args) != 1 || args[0] != hid {
		t.Errorf("args = %v", args)
	}
}

func TestFilter_SQL_Subquery(t *testing.T) {
	hid := uuid.New()
	f := Filter{Conds: []Cond{InSub("id", subVisitedPatients, hid)}}
	clause, args := f.SQL(1)
	want := "id IN (SELECT patient_id FROM patient_hospital_visit WHERE hospital_id = $1)"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if len(args) != 1 {
		t.Errorf("args = %v", args)
	}
}

func TestFilter_SQL_Empty(t *testing.T) {
	clause, args := (Filter{}).SQL(1)
	if clause != "" || args != nil {
		t.Errorf("empty filter must render nothing, got %q %v", clause, args)
	}
}

func TestFilter_SQL_MultipleConds(t *testing.T) {
	f := Filter{Conds: []Cond{Eq("a", 1), Eq("b", 2)}}
	clause, args := f.SQL(3)
	if clause != "a = $3 AND b = $4" {
		t.Errorf("clause = %q", clause)
	}
	if len(args) != 2 {
		t.Errorf("args = %v", args)
	}
}
