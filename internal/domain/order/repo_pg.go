package order

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

const orderCols = `id, order_number, patient_id, pharmacy_id, prescription_id,
	status, delivery_address, contact_phone, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.PatientID, &o.PharmacyID,
		&o.PrescriptionID, &o.Status, &o.DeliveryAddress, &o.ContactPhone,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *repoPG) Create(ctx context.Context, o *Order, initial *StatusChange) error {
	tx, err := r.conn(ctx).Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	o.ID = uuid.New()
	if _, err := tx.Exec(ctx, `
		INSERT INTO pharmacy_order (id, order_number, patient_id, pharmacy_id,
			prescription_id, status, delivery_address, contact_phone, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		o.ID, o.OrderNumber, o.PatientID, o.PharmacyID, o.PrescriptionID,
		o.Status, o.DeliveryAddress, o.ContactPhone, o.Notes); err != nil {
		return err
	}

	initial.ID = uuid.New()
	initial.OrderID = o.ID
	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_history (id, order_id, status, changed_by, note)
		VALUES ($1,$2,$3,$4,$5)`,
		initial.ID, initial.OrderID, initial.Status, initial.ChangedBy, initial.Note); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repoPG) GetByID(ctx context.Context, f scope.Filter, id uuid.UUID) (*Order, error) {
	clause, args := f.SQL(2)
	query := `SELECT ` + orderCols + ` FROM pharmacy_order WHERE id = $1`
	if clause != "" {
		query += ` AND ` + clause
	}
	args = append([]interface{}{id}, args...)
	return scanOrder(r.conn(ctx).QueryRow(ctx, query, args...))
}

func (r *repoPG) AppendStatus(ctx context.Context, id uuid.UUID, change *StatusChange) error {
	tx, err := r.conn(ctx).Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE pharmacy_order SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, change.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	change.ID = uuid.New()
	change.OrderID = id
	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_history (id, order_id, status, changed_by, note)
		VALUES ($1,$2,$3,$4,$5)`,
		change.ID, change.OrderID, change.Status, change.ChangedBy, change.Note); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repoPG) History(ctx context.Context, id uuid.UUID) ([]*StatusChange, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, order_id, status, changed_by, note, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*StatusChange
	for rows.Next() {
		var sc StatusChange
		if err := rows.Scan(&sc.ID, &sc.OrderID, &sc.Status, &sc.ChangedBy,
			&sc.Note, &sc.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, &sc)
	}
	return out, rows.Err()
}

func (r *repoPG) List(ctx context.Context, f scope.Filter, status string, limit, offset int) ([]*Order, int, error) {
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
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pharmacy_order`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+orderCols+` FROM pharmacy_order`+where+
		` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, nil
}
