//go:build integration

// Integration tests for the PostgreSQL catalog and history repositories.
// They require Docker and are gated behind the "integration" build tag.
package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/catalog"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/database/postgres"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "rxmatch_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/rxmatch_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applySchema(t, pool)
	return pool
}

func applySchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ddl := `
	CREATE TABLE IF NOT EXISTS medicine_catalog (
		id                BIGSERIAL PRIMARY KEY,
		brand_name        VARCHAR(255) NOT NULL UNIQUE,
		generic_name      VARCHAR(255) NOT NULL,
		official_strength VARCHAR(64)  NOT NULL,
		form              VARCHAR(64),
		combination_flag  BOOLEAN      NOT NULL DEFAULT FALSE,
		created_at        TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS prescriber_medicine_history (
		id            BIGSERIAL PRIMARY KEY,
		prescriber_id VARCHAR(128) NOT NULL,
		medicine_id   BIGINT       NOT NULL REFERENCES medicine_catalog (id) ON DELETE CASCADE,
		mapping_count INTEGER      NOT NULL DEFAULT 1,
		created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		UNIQUE (prescriber_id, medicine_id)
	);`
	_, err := pool.Exec(context.Background(), ddl)
	require.NoError(t, err)
}

func TestCatalogRepositoryRoundTrip(t *testing.T) {
	pool := startPostgres(t)
	repo := postgres.NewCatalogRepository(pool, nil)
	ctx := context.Background()

	id, err := repo.Upsert(ctx, &catalog.Record{
		BrandName:        "Augmentin 625 Duo",
		GenericName:      "co-amoxiclav",
		OfficialStrength: "625 mg",
		Form:             "tablet",
		CombinationFlag:  true,
	})
	require.NoError(t, err)
	require.Positive(t, id)

	rec, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Augmentin 625 Duo", rec.BrandName)
	assert.Equal(t, "625", rec.ImpliedVariant())
	assert.True(t, rec.CombinationFlag)

	// Upserting the same brand updates in place and keeps the id.
	again, err := repo.Upsert(ctx, &catalog.Record{
		BrandName:        "Augmentin 625 Duo",
		GenericName:      "co-amoxiclav",
		OfficialStrength: "625 mg",
		Form:             "tablet",
	})
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestCatalogRepositoryFindFirstByTermOrdersByID(t *testing.T) {
	pool := startPostgres(t)
	repo := postgres.NewCatalogRepository(pool, nil)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, &catalog.Record{BrandName: "Amoxiclav 500/125", GenericName: "co-amoxiclav", OfficialStrength: "500/125 mg", Form: "tablet"})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, &catalog.Record{BrandName: "Amoxiclav 375", GenericName: "co-amoxiclav", OfficialStrength: "375 mg", Form: "tablet"})
	require.NoError(t, err)

	rec, err := repo.FindFirstByTerm(ctx, "amoxiclav")
	require.NoError(t, err)
	assert.Equal(t, first, rec.ID)

	_, err = repo.FindFirstByTerm(ctx, "nosuchdrug")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHistoryRepositoryMappingCount(t *testing.T) {
	pool := startPostgres(t)
	catalogRepo := postgres.NewCatalogRepository(pool, nil)
	historyRepo := postgres.NewHistoryRepository(pool, nil)
	ctx := context.Background()

	id, err := catalogRepo.Upsert(ctx, &catalog.Record{BrandName: "Crocin Advance", GenericName: "paracetamol", OfficialStrength: "500 mg", Form: "tablet"})
	require.NoError(t, err)

	count, err := historyRepo.MappingCount(ctx, "dr-1", id)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, historyRepo.RecordMapping(ctx, "dr-1", id))
	require.NoError(t, historyRepo.RecordMapping(ctx, "dr-1", id))

	count, err = historyRepo.MappingCount(ctx, "dr-1", id)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
