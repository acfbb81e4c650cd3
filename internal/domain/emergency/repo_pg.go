package emergency

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
	Begin(ctx context.Context) (pgx.Tx, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const emergencyCols = `id, emergency_number, patient_id, status, description,
	location, contact_phone, created_at, updated_at`

func scanEmergency(row pgx.Row) (*Emergency, error) {
	var e Emergency
	err := row.Scan(&e.ID, &e.EmergencyNumber, &e.PatientID, &e.Status,
		&e.Description, &e.Location, &e.ContactPhone, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Emergency, initial *StatusChange) error {
	tx, err := r.conn(ctx).Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	e.ID = uuid.New()
	if _, err := tx.Exec(ctx, `
		INSERT INTO emergency (id, emergency_number, patient_id, status,
			description, location, contact_phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.EmergencyNumber, e.PatientID, e.Status, e.Description,
		e.Location, e.ContactPhone); err != nil {
		return err
	}

	initial.ID = uuid.New()
	initial.EmergencyID = e.ID
	if _, err := tx.Exec(ctx, `
		INSERT INTO emergency_status_history (id, emergency_id, status, changed_by, note)
		VALUES ($1,$2,$3,$4,$5)`,
		initial.ID, initial.EmergencyID, initial.Status, initial.ChangedBy, initial.Note); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repoPG) GetByID(ctx context.Context, f scope.Filter, id uuid.UUID) (*Emergency, error) {
	clause, args := f.SQL(2)
	query := `SELECT ` + emergencyCols + ` FROM emergency WHERE id = $1`
	if clause != "" {
		query += ` AND ` + clause
	}
	args = append([]interface{}{id}, args...)
	return scanEmergency(r.conn(ctx).QueryRow(ctx, query, args...))
}

func (r *repoPG) AppendStatus(ctx context.Context, id uuid.UUID, change *StatusChange) error {
	tx, err := r.conn(ctx).Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE emergency SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, change.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	change.ID = uuid.New()
	change.EmergencyID = id
	if _, err := tx.Exec(ctx, `
		INSERT INTO emergency_status_history (id, emergency_id, status, changed_by, note)
		VALUES ($1,$2,$3,$4,$5)`,
		change.ID, change.EmergencyID, change.Status, change.ChangedBy, change.Note); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repoPG) History(ctx context.Context, id uuid.UUID) ([]*StatusChange, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, emergency_id, status, changed_by, note, changed_at
		FROM emergency_status_history
		WHERE emergency_id = $1
		ORDER BY changed_at ASC, id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*StatusChange
	for rows.Next() {
		var sc StatusChange
		if err := rows.Scan(&sc.ID, &sc.EmergencyID, &sc.Status, &sc.ChangedBy,
			&sc.Note, &sc.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, &sc)
	}
	return out, rows.Err()
}

func (r *repoPG) List(ctx context.Context, f scope.Filter, status string, limit, offset int) ([]*Emergency, int, error) {
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
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM emergency`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+emergencyCols+` FROM emergency`+where+
		` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Emergency
	for rows.Next() {
		e, err := scanEmergency(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}
