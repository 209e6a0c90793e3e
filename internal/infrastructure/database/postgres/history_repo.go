package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// HistoryRepository is the PostgreSQL implementation of
// catalog.HistoryRepository.
type HistoryRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewHistoryRepository constructs a ready-to-use HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool, logger logging.Logger) *HistoryRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HistoryRepository{pool: pool, logger: logger}
}

// MappingCount returns how many times the prescriber has been mapped to the
// catalog record; zero when no history row exists.
func (r *HistoryRepository) MappingCount(ctx context.Context, prescriberID string, catalogID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT mapping_count
		  FROM prescriber_medicine_history
		 WHERE prescriber_id = $1 AND medicine_id = $2
		 LIMIT 1`, prescriberID, catalogID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "mapping count lookup failed")
	}
	return count, nil
}

// RecordMapping increments the mapping count for (prescriber, record),
// creating the row on first use.  Called by the ingestion worker when a
// confirmed mapping event arrives, never by the matching pipeline.
func (r *HistoryRepository) RecordMapping(ctx context.Context, prescriberID string, catalogID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO prescriber_medicine_history (prescriber_id, medicine_id, mapping_count, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (prescriber_id, medicine_id) DO UPDATE SET
			mapping_count = prescriber_medicine_history.mapping_count + 1,
			updated_at    = NOW()`, prescriberID, catalogID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "record mapping failed")
	}
	return nil
}
