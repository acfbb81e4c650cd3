package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueConstraintFields maps unique-index names to the user-facing field
// they protect. Duplicate-key errors are surfaced to clients as a 400 with
// a field-specific message, so the mapping must track the migrations.
var uniqueConstraintFields = map[string]string{
	"app_user_email_key":              "email",
	"app_user_phone_key":              "phone",
	"patient_patient_number_key":      "patient_number",
	"patient_user_id_key":             "user",
	"doctor_license_number_key":       "license_number",
	"doctor_user_id_key":              "user",
	"emergency_emergency_number_key":  "emergency_number",
	"pharmacy_order_order_number_key": "order_number",
}

// DuplicateField inspects err for a PostgreSQL unique violation (23505) and
// returns the conflicting user-facing field name. ok is false when err is
// not a unique violation.
func DuplicateField(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return "", false
	}
	if f, known := uniqueConstraintFields[pgErr.ConstraintName]; known {
		return f, true
	}
	return pgErr.ConstraintName, true
}
