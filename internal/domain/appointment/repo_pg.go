package appointment

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

const apptCols = `id, patient_id, doctor_id, hospital_id, department_id, scheduled_at,
	type, status, fee, reason, patient_details, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var details []byte
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.HospitalID, &a.DepartmentID, &a.ScheduledAt,
		&a.Type, &a.Status, &a.Fee, &a.Reason, &details, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &a.PatientDetails); err != nil {
			return nil, fmt.Errorf("decode patient_details: %w", err)
		}
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	var details []byte
	if a.PatientDetails != nil {
		var err error
		details, err = json.Marshal(a.PatientDetails)
		if err != nil {
			return fmt.Errorf("encode patient_details: %w", err)
		}
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, hospital_id, department_id,
			scheduled_at, type, status, fee, reason, patient_details)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.PatientID, a.DoctorID, a.HospitalID, a.DepartmentID,
		a.ScheduledAt, a.Type, a.Status, a.Fee, a.Reason, details)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, f scope.Filter, id uuid.UUID) (*Appointment, error) {
	clause, args := f.SQL(2)
	query := `SELECT ` + apptCols + ` FROM appointment WHERE id = $1`
	if clause != "" {
		query += ` AND ` + clause
	}
	args = append([]interface{}{id}, args...)
	return scanAppointment(r.conn(ctx).QueryRow(ctx, query, args...))
}

// UpdateStatus changes only the status column; the patient_details
// snapshot and booking fields stay as written.
func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f scope.Filter, status string, limit, offset int) ([]*Appointment, int, error) {
	clause, args := f.SQL(1)
	where := ""
	if clause != "" {
		where = " WHERE " + clause
	}
	idx := len(args) + 1

	if status != "" {
		if where == "" {
			where = fmt.Sprintf(" WHERE status = $%d", idx)
		} else {
			where += fmt.Sprintf(" AND status = $%d", idx)
		}
		args = append(args, status)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+apptCols+` FROM appointment`+where+
		` ORDER BY scheduled_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}
