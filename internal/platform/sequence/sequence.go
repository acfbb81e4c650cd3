// Package sequence issues human-readable display numbers (PAT-…, EMG-…,
// ORD-…). Numbers come from database sequences, not a count-then-insert
// read, so concurrent creations can never mint duplicates.
package sequence

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

// Known display-number prefixes.
const (
	PrefixPatient   = "PAT"
	PrefixEmergency = "EMG"
	PrefixOrder     = "ORD"
)

// Format: {PREFIX}-{epoch-millis}-{zero-padded sequence}.
var numberPattern = regexp.MustCompile(`^[A-Z]{3}-\d{13}-\d{4,}$`)

// Valid reports whether s matches the display-number format.
func Valid(s string) bool { return numberPattern.MatchString(s) }

// Generator mints display numbers for a prefix.
type Generator interface {
	Next(ctx context.Context, prefix string) (string, error)
}

var prefixPattern = regexp.MustCompile(`^[A-Z]{3}$`)

func format(prefix string, at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, at.UnixMilli(), seq)
}

// PGGenerator backs display numbers with per-prefix Postgres sequences
// (display_seq_pat, display_seq_emg, …) created by the migrations.
type PGGenerator struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPGGenerator(pool *pgxpool.Pool) *PGGenerator {
	return &PGGenerator{pool: pool, now: time.Now}
}

func (g *PGGenerator) Next(ctx context.Context, prefix string) (string, error) {
	if !prefixPattern.MatchString(prefix) {
		return "", fmt.Errorf("invalid display-number prefix: %q", prefix)
	}

	seqName := fmt.Sprintf("display_seq_%s", lower(prefix))
	query := fmt.Sprintf("SELECT nextval('%s')", seqName)

	var seq int64
	var err error
	if c := db.ConnFromContext(ctx); c != nil {
		err = c.QueryRow(ctx, query).Scan(&seq)
	} else {
		err = g.pool.QueryRow(ctx, query).Scan(&seq)
	}
	if err != nil {
		return "", fmt.Errorf("next %s number: %w", prefix, err)
	}

	return format(prefix, g.now(), seq), nil
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// MemoryGenerator is an in-process Generator for tests and development.
type MemoryGenerator struct {
	mu   sync.Mutex
	seqs map[string]int64
	now  func() time.Time
}

func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{seqs: make(map[string]int64), now: time.Now}
}

// SetClock overrides the generator's clock. Intended for tests.
func (g *MemoryGenerator) SetClock(now func() time.Time) { g.now = now }

func (g *MemoryGenerator) Next(_ context.Context, prefix string) (string, error) {
	if !prefixPattern.MatchString(prefix) {
		return "", fmt.Errorf("invalid display-number prefix: %q", prefix)
	}
	g.mu.Lock()
	g.seqs[prefix]++
	seq := g.seqs[prefix]
	g.mu.Unlock()
	return format(prefix, g.now(), seq), nil
}
