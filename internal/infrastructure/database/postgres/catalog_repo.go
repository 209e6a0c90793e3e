package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/catalog"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

const catalogColumns = `id, brand_name, generic_name, official_strength, COALESCE(form, ''), combination_flag, created_at, updated_at`

// CatalogRepository is the PostgreSQL implementation of catalog.Repository.
type CatalogRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewCatalogRepository constructs a ready-to-use CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool, logger logging.Logger) *CatalogRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CatalogRepository{pool: pool, logger: logger}
}

func scanRecord(row pgx.Row) (*catalog.Record, error) {
	var rec catalog.Record
	err := row.Scan(&rec.ID, &rec.BrandName, &rec.GenericName, &rec.OfficialStrength,
		&rec.Form, &rec.CombinationFlag, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindByID resolves a record by id.
func (r *CatalogRepository) FindByID(ctx context.Context, id int64) (*catalog.Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+catalogColumns+` FROM medicine_catalog WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.New(apperrors.ErrCodeCatalogRecordNotFound, "catalog record not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCatalogQueryFailed, "find by id failed")
	}
	return rec, nil
}

// FindFirstByTerm returns the lowest-id record whose brand or generic name
// contains term, case-insensitively.
func (r *CatalogRepository) FindFirstByTerm(ctx context.Context, term string) (*catalog.Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+catalogColumns+`
		   FROM medicine_catalog
		  WHERE brand_name ILIKE '%' || $1 || '%'
		     OR generic_name ILIKE '%' || $1 || '%'
		  ORDER BY id
		  LIMIT 1`, term))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.New(apperrors.ErrCodeCatalogRecordNotFound, "no record contains term")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCatalogQueryFailed, "find by term failed")
	}
	return rec, nil
}

// ListAll returns every record ordered by ascending id.
func (r *CatalogRepository) ListAll(ctx context.Context) ([]*catalog.Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+catalogColumns+` FROM medicine_catalog ORDER BY id`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCatalogQueryFailed, "list all failed")
	}
	defer rows.Close()

	var records []*catalog.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeCatalogQueryFailed, "row scan failed")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCatalogQueryFailed, "row iteration failed")
	}
	return records, nil
}

// Upsert inserts the record, updating in place when the brand name already
// exists.  Returns the persisted id.
func (r *CatalogRepository) Upsert(ctx context.Context, rec *catalog.Record) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO medicine_catalog
			(brand_name, generic_name, official_strength, form, combination_flag, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW(), NOW())
		ON CONFLICT (brand_name) DO UPDATE SET
			generic_name      = EXCLUDED.generic_name,
			official_strength = EXCLUDED.official_strength,
			form              = EXCLUDED.form,
			combination_flag  = EXCLUDED.combination_flag,
			updated_at        = NOW()
		RETURNING id`,
		rec.BrandName, rec.GenericName, rec.OfficialStrength, rec.Form, rec.CombinationFlag,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeCatalogQueryFailed, "upsert failed")
	}

	r.logger.Debug("catalog record upserted",
		logging.Int64("id", id), logging.String("brand_name", rec.BrandName))
	return id, nil
}

// Delete removes a record by id; deleting an absent id is a no-op.
func (r *CatalogRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM medicine_catalog WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCatalogQueryFailed, "delete failed")
	}
	return nil
}
