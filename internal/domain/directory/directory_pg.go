// Package directory implements the scope package's profile lookups over
// the tenant schema. It is the single place where a caller's user ID is
// mapped to the doctor, patient or hospital profile the row filters use.
package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/scope"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type PG struct {
	pool *pgxpool.Pool
}

var _ scope.ProfileDirectory = (*PG)(nil)

func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

func (d *PG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return d.pool
}

func (d *PG) lookupID(ctx context.Context, query string, userID uuid.UUID) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := d.conn(ctx).QueryRow(ctx, query, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func (d *PG) DoctorIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	return d.lookupID(ctx, `SELECT id FROM doctor WHERE user_id = $1`, userID)
}

func (d *PG) PatientIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	return d.lookupID(ctx, `SELECT id FROM patient WHERE user_id = $1`, userID)
}

func (d *PG) HospitalIDByAdminUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	return d.lookupID(ctx, `SELECT id FROM hospital WHERE user_id = $1`, userID)
}

func (d *PG) HasAppointment(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := d.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM appointment WHERE doctor_id = $1 AND patient_id = $2)`,
		doctorID, patientID).Scan(&exists)
	return exists, err
}

func (d *PG) HasVisited(ctx context.Context, patientID, hospitalID uuid.UUID) (bool, error) {
	var exists bool
	err := d.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM patient_hospital_visit WHERE patient_id = $1 AND hospital_id = $2)`,
		patientID, hospitalID).Scan(&exists)
	return exists, err
}
