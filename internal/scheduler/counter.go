package scheduler

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Recalibration signal thresholds: the forgetting-model parameters become
// eligible for offline recalibration once the global review count crosses
// RecalibrationThreshold and at every RecalibrationStep reviews thereafter.
const (
	RecalibrationThreshold = 400
	RecalibrationStep      = 100
)

// RecalibrationDue reports whether a recalibration signal should be emitted
// for the given global review total.
func RecalibrationDue(total int64) bool {
	return total >= RecalibrationThreshold && total%RecalibrationStep == 0
}

// CounterRepository tracks the global review counter.
type CounterRepository interface {
	Increment(ctx context.Context) (int64, error)
	Total(ctx context.Context) (int64, error)
	WithTx(tx *sqlx.Tx) CounterRepository
}

// DBCounterRepository implements CounterRepository on the single-row
// review_counter table.
type DBCounterRepository struct {
	ext sqlx.ExtContext
}

// NewDBCounterRepository creates a DBCounterRepository bound to the given database.
func NewDBCounterRepository(db *sqlx.DB) *DBCounterRepository {
	return &DBCounterRepository{ext: db}
}

// WithTx returns a copy of the repository that runs inside the transaction.
func (r *DBCounterRepository) WithTx(tx *sqlx.Tx) CounterRepository {
	return &DBCounterRepository{ext: tx}
}

// Increment adds one review to the global counter and returns the new total.
func (r *DBCounterRepository) Increment(ctx context.Context) (int64, error) {
	if _, err := r.ext.ExecContext(ctx, "UPDATE review_counter SET total = total + 1 WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("increment review counter: %w", err)
	}
	return r.Total(ctx)
}

// Total returns the current global review count.
func (r *DBCounterRepository) Total(ctx context.Context) (int64, error) {
	var total int64
	if err := sqlx.GetContext(ctx, r.ext, &total, "SELECT total FROM review_counter WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("select review counter: %w", err)
	}
	return total, nil
}
