package medicalrecord

import (
	"context"
	"encoding/json"
	"fmt"

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const recordCols = `id, patient_id, doctor_id, hospital_id, appointment_id,
	diagnosis, vitals, notes, follow_up_doctor_id, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var vitals []byte
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.HospitalID,
		&rec.AppointmentID, &rec.Diagnosis, &vitals, &rec.Notes,
		&rec.FollowUpDoctorID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(vitals) > 0 {
		if err := json.Unmarshal(vitals, &rec.Vitals); err != nil {
			return nil, fmt.Errorf("decode vitals: %w", err)
		}
	}
	return &rec, nil
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	vitals, err := json.Marshal(rec.Vitals)
	if err != nil {
		return fmt.Errorf("encode vitals: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_record (id, patient_id, doctor_id, hospital_id,
			appointment_id, diagnosis, vitals, notes, follow_up_doctor_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.ID, rec.PatientID, rec.DoctorID, rec.HospitalID, rec.AppointmentID,
		rec.Diagnosis, vitals, rec.Notes, rec.FollowUpDoctorID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, f scope.Filter, id uuid.UUID) (*Record, error) {
	clause, args := f.SQL(2)
	query := `SELECT ` + recordCols + ` FROM medical_record WHERE id = $1`
	if clause != "" {
		query += ` AND ` + clause
	}
	args = append([]interface{}{id}, args...)
	return scanRecord(r.conn(ctx).QueryRow(ctx, query, args...))
}

func (r *repoPG) Amend(ctx context.Context, id uuid.UUID, notes string, followUp *uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_record
		SET notes = CASE WHEN notes = '' THEN $2 ELSE notes || E'\n' || $2 END,
			follow_up_doctor_id = COALESCE($3, follow_up_doctor_id),
			updated_at = NOW()
		WHERE id = $1`,
		id, notes, followUp)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f scope.Filter, patientID *uuid.UUID, limit, offset int) ([]*Record, int, error) {
	clause, args := f.SQL(1)
	where := ""
	if clause != "" {
		where = " WHERE " + clause
	}
	idx := len(args) + 1

	if patientID != nil {
		if where == "" {
			where = fmt.Sprintf(" WHERE patient_id = $%d", idx)
		} else {
			where += fmt.Sprintf(" AND patient_id = $%d", idx)
		}
		args = append(args, *patientID)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_record`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+recordCols+` FROM medical_record`+where+
		` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, nil
}
