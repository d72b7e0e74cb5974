package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/openclinic/ehr-api/internal/repository"
	"github.com/openclinic/ehr-api/pkg/metrics"
)

const pqUniqueViolation = "23505"

// dbMetrics is nil until SetMetrics is called; repositories work without it.
var dbMetrics *metrics.Metrics

// SetMetrics enables operation counters and latency histograms for all
// transactional repository operations.
func SetMetrics(m *metrics.Metrics) {
	dbMetrics = m
}

func observe(operation string, start time.Time, errp *error) {
	if dbMetrics == nil {
		return
	}
	status := "success"
	if *errp != nil {
		status = "error"
	}
	dbMetrics.DatabaseOperations.WithLabelValues(operation, status).Inc()
	dbMetrics.DatabaseLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// WithTx executes a function within a transaction. The operation name labels
// the recorded metrics.
func (r *BaseRepository) WithTx(ctx context.Context, operation string, fn func(*sqlx.Tx) error) (err error) {
	defer observe(operation, time.Now(), &err)

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

	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// translateError maps driver errors onto the repository sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}
