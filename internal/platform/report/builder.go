// Package report builds role-scoped aggregate statistics: grouped counts,
// sparse monthly trends, top-N rankings, revenue summaries and age
// distributions. Every query takes a resolved scope.Filter so a report can
// only ever cover rows its caller is allowed to see.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/scope"
)

// ValueCount is one group in a count-by-field report.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// TrendPoint is one non-empty month bucket in a trend report.
type TrendPoint struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// RevenueSummary is the current-month revenue aggregate. An empty match
// set yields zero values, never null.
type RevenueSummary struct {
	TotalRevenue float64 `json:"total_revenue"`
	AvgRevenue   float64 `json:"avg_revenue"`
}

// RankedItem is one row of a top-N ranking.
type RankedItem struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

// TopNSpec describes a ranking query: filtered rows of Table joined to
// RefTable for a display name, grouped by the foreign key and ordered by
// the summed metric.
type TopNSpec struct {
	Table      string
	RefTable   string
	ForeignKey string // column on Table referencing RefTable.id
	NameColumn string // display column on RefTable
	Metric     string // aggregate expression, e.g. COUNT(*) or SUM(t.fee)
	N          int
}

// TrendMonths is the default trend window length.
const TrendMonths = 6

// DefaultTopN is the ranking cutoff.
const DefaultTopN = 10

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Builder runs aggregate queries against the tenant-scoped connection.
type Builder struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewBuilder(pool *pgxpool.Pool) *Builder {
	return &Builder{pool: pool, now: time.Now}
}

// SetClock overrides the builder's clock. Intended for tests.
func (b *Builder) SetClock(now func() time.Time) { b.now = now }

func (b *Builder) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return b.pool
}

// CountByField groups rows matching the filter by one column and returns
// {value, count} pairs. Result order is whatever the database produces;
// callers wanting a ranking use TopN.
func (b *Builder) CountByField(ctx context.Context, table, field string, f scope.Filter) ([]ValueCount, error) {
	query := fmt.Sprintf(`SELECT COALESCE(%s::text, 'unknown'), COUNT(*) FROM %s WHERE 1=1`, field, table)
	clause, args := f.SQL(1)
	if clause != "" {
		query += " AND " + clause
	}
	query += " GROUP BY 1"

	rows, err := b.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count %s by %s: %w", table, field, err)
	}
	defer rows.Close()

	var out []ValueCount
	for rows.Next() {
		var vc ValueCount
		if err := rows.Scan(&vc.Value, &vc.Count); err != nil {
			return nil, err
		}
		out = append(out, vc)
	}
	return out, rows.Err()
}

// MonthlyTrend buckets rows of the last TrendMonths months by (year,
// month), ascending. Months with no matching rows are not emitted.
func (b *Builder) MonthlyTrend(ctx context.Context, table, dateColumn string, f scope.Filter) ([]TrendPoint, error) {
	since := TrendWindowStart(b.now(), TrendMonths)

	query := fmt.Sprintf(`SELECT EXTRACT(YEAR FROM %[1]s)::int, EXTRACT(MONTH FROM %[1]s)::int, COUNT(*)
		FROM %[2]s WHERE %[1]s >= $1`, dateColumn, table)
	args := []interface{}{since}
	clause, extra := f.SQL(2)
	if clause != "" {
		query += " AND " + clause
		args = append(args, extra...)
	}
	query += " GROUP BY 1, 2 ORDER BY 1, 2"

	rows, err := b.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("trend %s: %w", table, err)
	}
	defer rows.Close()

	var out []TrendPoint
	for rows.Next() {
		var tp TrendPoint
		if err := rows.Scan(&tp.Year, &tp.Month, &tp.Count); err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}

// TopN runs a ranking query. Ties keep the database's arbitrary order; no
// secondary sort key is applied.
func (b *Builder) TopN(ctx context.Context, spec TopNSpec, f scope.Filter) ([]RankedItem, error) {
	n := spec.N
	if n <= 0 {
		n = DefaultTopN
	}

	query := fmt.Sprintf(`SELECT r.%s, %s AS total FROM %s t JOIN %s r ON t.%s = r.id WHERE 1=1`,
		spec.NameColumn, spec.Metric, spec.Table, spec.RefTable, spec.ForeignKey)
	clause, args := f.Qualify("t").SQL(1)
	if clause != "" {
		query += " AND " + clause
	}
	query += fmt.Sprintf(" GROUP BY r.id, r.%s ORDER BY total DESC LIMIT %d", spec.NameColumn, n)

	rows, err := b.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("rank %s by %s: %w", spec.Table, spec.RefTable, err)
	}
	defer rows.Close()

	var out []RankedItem
	for rows.Next() {
		var ri RankedItem
		if err := rows.Scan(&ri.Name, &ri.Total); err != nil {
			return nil, err
		}
		out = append(out, ri)
	}
	return out, rows.Err()
}

// Revenue sums and averages amountColumn over completed rows in the
// current calendar month. COALESCE guarantees the zero-valued summary for
// an empty match set.
func (b *Builder) Revenue(ctx context.Context, table, amountColumn, dateColumn string, f scope.Filter) (RevenueSummary, error) {
	start, end := MonthWindow(b.now())

	query := fmt.Sprintf(`SELECT COALESCE(SUM(%[1]s), 0), COALESCE(AVG(%[1]s), 0)
		FROM %[2]s WHERE status = 'completed' AND %[3]s >= $1 AND %[3]s < $2`,
		amountColumn, table, dateColumn)
	args := []interface{}{start, end}
	clause, extra := f.SQL(3)
	if clause != "" {
		query += " AND " + clause
		args = append(args, extra...)
	}

	var rs RevenueSummary
	err := b.conn(ctx).QueryRow(ctx, query, args...).Scan(&rs.TotalRevenue, &rs.AvgRevenue)
	if err != nil {
		return RevenueSummary{}, fmt.Errorf("revenue %s: %w", table, err)
	}
	return rs, nil
}

// AgeDistribution fetches patient birth dates matching the filter and
// groups their current ages into the fixed buckets.
func (b *Builder) AgeDistribution(ctx context.Context, f scope.Filter) ([]ValueCount, error) {
	query := `SELECT date_of_birth FROM patient WHERE date_of_birth IS NOT NULL`
	clause, args := f.SQL(1)
	if clause != "" {
		query += " AND " + clause
	}

	rows, err := b.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("age distribution: %w", err)
	}
	defer rows.Close()

	now := b.now()
	var ages []int
	for rows.Next() {
		var dob time.Time
		if err := rows.Scan(&dob); err != nil {
			return nil, err
		}
		ages = append(ages, AgeAt(dob, now))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return BucketAges(ages), nil
}

// AgeAt returns the whole-year age at the reference time.
func AgeAt(dob, at time.Time) int {
	age := at.Year() - dob.Year()
	if at.Month() < dob.Month() || (at.Month() == dob.Month() && at.Day() < dob.Day()) {
		age--
	}
	return age
}
