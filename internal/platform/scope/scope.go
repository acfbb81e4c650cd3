// Package scope decides what slice of the data a caller may see. Every
// list/read/write path resolves the caller's role to a typed query filter
// before touching the database; handlers map a forbidden decision to HTTP
// 403 with a generic message.
package scope

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHospital Role = "hospital"
	RoleDoctor   Role = "doctor"
	RolePatient  Role = "patient"
)

// Resource identifies a scoped collection.
type Resource string

const (
	Patients       Resource = "patients"
	Doctors        Resource = "doctors"
	Hospitals      Resource = "hospitals"
	Appointments   Resource = "appointments"
	Prescriptions  Resource = "prescriptions"
	MedicalRecords Resource = "medical-records"
	Emergencies    Resource = "emergencies"
	Orders         Resource = "orders"
)

// Caller is the authenticated actor issuing a request.
type Caller struct {
	UserID uuid.UUID
	Role   Role
}

// NewCaller builds a Caller from the raw string claims carried by the auth
// middleware. An unparseable user ID yields a caller that resolves to
// forbidden for every role-scoped rule.
func NewCaller(userID, role string) Caller {
	uid, _ := uuid.Parse(userID)
	return Caller{UserID: uid, Role: Role(role)}
}

// Op selects how a condition is rendered.
type Op int

const (
	OpEq Op = iota
	OpInSub
)

// Cond is a single typed predicate in a scope filter. Filters are built
// from these instead of ad-hoc key accumulation so that every rendered
// query is parameterized.
type Cond struct {
	Column string
	Op     Op
	Sub    string // subquery template with one %s argument placeholder
	Value  interface{}
}

// Eq builds an equality condition.
func Eq(column string, v interface{}) Cond {
	return Cond{Column: column, Op: OpEq, Value: v}
}

// InSub builds a membership condition against a parameterized subquery.
func InSub(column, sub string, v interface{}) Cond {
	return Cond{Column: column, Op: OpInSub, Sub: sub, Value: v}
}

// Filter restricts a query to the rows a caller is allowed to see. The
// zero value matches everything (admin scope).
type Filter struct {
	Conds []Cond
}

// Empty reports whether the filter imposes no restriction.
func (f Filter) Empty() bool { return len(f.Conds) == 0 }

// SQL renders the filter as an AND-joined fragment with placeholders
// starting at start. The fragment is empty for an unrestricted filter.
func (f Filter) SQL(start int) (string, []interface{}) {
	if f.Empty() {
		return "", nil
	}
	clause := ""
	args := make([]interface{}, 0, len(f.Conds))
	for i, cond := range f.Conds {
		if i > 0 {
			clause += " AND "
		}
		ph := fmt.Sprintf("$%d", start+i)
		switch cond.Op {
		case OpInSub:
			clause += fmt.Sprintf("%s IN (%s)", cond.Column, fmt.Sprintf(cond.Sub, ph))
		default:
			clause += fmt.Sprintf("%s = %s", cond.Column, ph)
		}
		args = append(args, cond.Value)
	}
	return clause, args
}

// Qualify returns a copy of the filter with every condition column
// prefixed by the given table alias. Needed when the filter is embedded in
// a join where bare column names would be ambiguous.
func (f Filter) Qualify(alias string) Filter {
	if f.Empty() || alias == "" {
		return f
	}
	conds := make([]Cond, len(f.Conds))
	for i, c := range f.Conds {
		c.Column = alias + "." + c.Column
		conds[i] = c
	}
	return Filter{Conds: conds}
}

// Decision is the outcome of resolving a caller against a resource.
// Allowed=false maps to HTTP 403; handlers must not reveal whether the
// target exists.
type Decision struct {
	Allowed bool
	Filter  Filter
}

// Forbidden is the zero decision.
var Forbidden = Decision{}

func allow(conds ...Cond) Decision {
	return Decision{Allowed: true, Filter: Filter{Conds: conds}}
}

// ProfileDirectory resolves a caller's user ID to their role profile and
// answers the relationship checks the rule table needs. Every table stores
// the doctor profile ID, never the doctor's user ID; the directory performs
// the user-to-profile mapping exactly once, at this boundary.
type ProfileDirectory interface {
	DoctorIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error)
	PatientIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error)
	HospitalIDByAdminUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error)
	// HasAppointment reports whether any appointment links the doctor and
	// patient profiles.
	HasAppointment(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
	// HasVisited reports whether the patient has a visit record at the
	// hospital.
	HasVisited(ctx context.Context, patientID, hospitalID uuid.UUID) (bool, error)
}

// Resolver computes scope decisions from the role rule table. It holds no
// mutable state; the only lookups are profile resolutions through the
// directory.
type Resolver struct {
	dir ProfileDirectory
}

func NewResolver(dir ProfileDirectory) *Resolver {
	return &Resolver{dir: dir}
}

// DoctorProfile returns the caller's doctor profile ID, when one exists.
func (r *Resolver) DoctorProfile(ctx context.Context, caller Caller) (uuid.UUID, bool, error) {
	if caller.Role != RoleDoctor {
		return uuid.Nil, false, nil
	}
	return r.dir.DoctorIDByUser(ctx, caller.UserID)
}

// PatientProfile returns the caller's patient profile ID, when one exists.
func (r *Resolver) PatientProfile(ctx context.Context, caller Caller) (uuid.UUID, bool, error) {
	if caller.Role != RolePatient {
		return uuid.Nil, false, nil
	}
	return r.dir.PatientIDByUser(ctx, caller.UserID)
}

// HospitalProfile returns the hospital the caller administers, when set.
func (r *Resolver) HospitalProfile(ctx context.Context, caller Caller) (uuid.UUID, bool, error) {
	if caller.Role != RoleHospital {
		return uuid.Nil, false, nil
	}
	return r.dir.HospitalIDByAdminUser(ctx, caller.UserID)
}

// Subquery templates shared by the rule table.
const (
	subVisitedPatients = "SELECT patient_id FROM patient_hospital_visit WHERE hospital_id = %s"
	subTreatedPatients = "SELECT patient_id FROM appointment WHERE doctor_id = %s"
	subHospitalDoctors = "SELECT id FROM doctor WHERE hospital_id = %s"
)

// Resolve applies the role rule table:
//
//	admin    — everything, no filter
//	hospital — rows linked to the caller's hospital
//	doctor   — rows referencing the caller's doctor profile, plus patients
//	           the doctor has an appointment with
//	patient  — rows referencing the caller's own patient profile
//
// A caller whose role profile is missing resolves to forbidden, never an
// error: an unprovisioned doctor account simply sees nothing.
func (r *Resolver) Resolve(ctx context.Context, caller Caller, res Resource) (Decision, error) {
	switch caller.Role {
	case RoleAdmin:
		return allow(), nil
	case RoleHospital:
		return r.resolveHospital(ctx, caller, res)
	case RoleDoctor:
		return r.resolveDoctor(ctx, caller, res)
	case RolePatient:
		return r.resolvePatient(ctx, caller, res)
	default:
		return Forbidden, nil
	}
}

func (r *Resolver) resolveHospital(ctx context.Context, caller Caller, res Resource) (Decision, error) {
	hid, ok, err := r.dir.HospitalIDByAdminUser(ctx, caller.UserID)
	if err != nil {
		return Forbidden, err
	}
	if !ok {
		return Forbidden, nil
	}

	switch res {
	case Hospitals:
		return allow(Eq("id", hid)), nil
	case Patients:
		return allow(InSub("id", subVisitedPatients, hid)), nil
	case Doctors:
		return allow(Eq("hospital_id", hid)), nil
	case Appointments, MedicalRecords:
		return allow(Eq("hospital_id", hid)), nil
	case Prescriptions:
		return allow(InSub("doctor_id", subHospitalDoctors, hid)), nil
	case Emergencies:
		return allow(InSub("patient_id", subVisitedPatients, hid)), nil
	case Orders:
		return allow(Eq("pharmacy_id", hid)), nil
	}
	return Forbidden, nil
}

func (r *Resolver) resolveDoctor(ctx context.Context, caller Caller, res Resource) (Decision, error) {
	did, ok, err := r.dir.DoctorIDByUser(ctx, caller.UserID)
	if err != nil {
		return Forbidden, err
	}
	if !ok {
		return Forbidden, nil
	}

	switch res {
	case Doctors:
		return allow(Eq("id", did)), nil
	case Appointments, Prescriptions, MedicalRecords:
		return allow(Eq("doctor_id", did)), nil
	case Patients:
		return allow(InSub("id", subTreatedPatients, did)), nil
	case Emergencies:
		return allow(InSub("patient_id", subTreatedPatients, did)), nil
	}
	return Forbidden, nil
}

func (r *Resolver) resolvePatient(ctx context.Context, caller Caller, res Resource) (Decision, error) {
	pid, ok, err := r.dir.PatientIDByUser(ctx, caller.UserID)
	if err != nil {
		return Forbidden, err
	}
	if !ok {
		return Forbidden, nil
	}

	switch res {
	case Patients:
		return allow(Eq("id", pid)), nil
	case Appointments, Prescriptions, MedicalRecords, Emergencies, Orders:
		return allow(Eq("patient_id", pid)), nil
	}
	return Forbidden, nil
}

// CanAccessPatient answers the single-target question: may this caller
// touch this specific patient? For doctors this is an existence check on a
// linking appointment, not ownership.
func (r *Resolver) CanAccessPatient(ctx context.Context, caller Caller, patientID uuid.UUID) (bool, error) {
	switch caller.Role {
	case RoleAdmin:
		return true, nil
	case RoleHospital:
		hid, ok, err := r.dir.HospitalIDByAdminUser(ctx, caller.UserID)
		if err != nil || !ok {
			return false, err
		}
		return r.dir.HasVisited(ctx, patientID, hid)
	case RoleDoctor:
		did, ok, err := r.dir.DoctorIDByUser(ctx, caller.UserID)
		if err != nil || !ok {
			return false, err
		}
		return r.dir.HasAppointment(ctx, did, patientID)
	case RolePatient:
		pid, ok, err := r.dir.PatientIDByUser(ctx, caller.UserID)
		if err != nil || !ok {
			return false, err
		}
		return pid == patientID, nil
	}
	return false, nil
}
