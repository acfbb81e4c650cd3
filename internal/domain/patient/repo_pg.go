package patient

import (
	"context"
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

const patientCols = `id, user_id, patient_number, date_of_birth, gender, blood_group,
	address, emergency_contact_name, emergency_contact_phone,
	insurance_provider, insurance_number, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.UserID, &p.PatientNumber, &p.DateOfBirth, &p.Gender, &p.BloodGroup,
		&p.Address, &p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.InsuranceProvider, &p.InsuranceNumber, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, user_id, patient_number, date_of_birth, gender, blood_group,
			address, emergency_contact_name, emergency_contact_phone,
			insurance_provider, insurance_number)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.UserID, p.PatientNumber, p.DateOfBirth, p.Gender, p.BloodGroup,
		p.Address, p.EmergencyContactName, p.EmergencyContactPhone,
		p.InsuranceProvider, p.InsuranceNumber)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE user_id = $1`, userID))
}

// Update never touches patient_number: the display ID is immutable.
func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET date_of_birth=$2, gender=$3, blood_group=$4, address=$5,
			emergency_contact_name=$6, emergency_contact_phone=$7,
			insurance_provider=$8, insurance_number=$9, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.DateOfBirth, p.Gender, p.BloodGroup, p.Address,
		p.EmergencyContactName, p.EmergencyContactPhone,
		p.InsuranceProvider, p.InsuranceNumber)
	return err
}

func (r *repoPG) List(ctx context.Context, f scope.Filter, limit, offset int) ([]*Patient, int, error) {
	where := ""
	clause, args := f.SQL(1)
	if clause != "" {
		where = " WHERE " + clause
	}
	idx := len(args) + 1

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+patientCols+` FROM patient`+where+
		` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *repoPG) RecordVisit(ctx context.Context, patientID, hospitalID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_hospital_visit (patient_id, hospital_id, visit_count, last_visit_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (patient_id, hospital_id)
		DO UPDATE SET visit_count = patient_hospital_visit.visit_count + 1, last_visit_at = NOW()`,
		patientID, hospitalID)
	return err
}

func (r *repoPG) ListVisits(ctx context.Context, patientID uuid.UUID) ([]*HospitalVisit, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT patient_id, hospital_id, visit_count, last_visit_at
		FROM patient_hospital_visit WHERE patient_id = $1 ORDER BY last_visit_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*HospitalVisit
	for rows.Next() {
		var v HospitalVisit
		if err := rows.Scan(&v.PatientID, &v.HospitalID, &v.VisitCount, &v.LastVisitAt); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	return items, nil
}
