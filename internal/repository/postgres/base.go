package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/medly/medly-api/pkg/metrics"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

// NewBaseRepository creates a new base repository. Metrics may be nil.
func NewBaseRepository(db *sqlx.DB, m *metrics.Metrics) BaseRepository {
	return BaseRepository{db: db, metrics: m}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// ext routes a query to the transaction when one is in flight.
func (r *BaseRepository) ext(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return r.db
}

// track records query timing; called as `defer r.track("name", time.Now())`.
// Slow queries are logged individually.
func (r *BaseRepository) track(name string, start time.Time) {
	elapsed := r.metrics.ObserveQuery(name, start)
	if elapsed > metrics.SlowQueryThreshold {
		log.Warn().
			Str("query", name).
			Dur("elapsed", elapsed).
			Msg("slow query")
	}
}

// inClause expands a slice into an IN query bound for the pool's dialect.
func (r *BaseRepository) inClause(query string, args ...interface{}) (string, []interface{}, error) {
	q, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return r.db.Rebind(q), expanded, nil
}
