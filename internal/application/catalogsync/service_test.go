package catalogsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/catalog"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/search/milvus"
	"github.com/turtacn/RxMatch-Intelligence/internal/intelligence/encoder"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

type fakeRepo struct {
	records []*catalog.Record
	nextID  int64
	deleted []int64
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*catalog.Record, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrCodeCatalogRecordNotFound, "catalog record not found")
}

func (f *fakeRepo) FindFirstByTerm(context.Context, string) (*catalog.Record, error) {
	return nil, apperrors.New(apperrors.ErrCodeCatalogRecordNotFound, "not used")
}

func (f *fakeRepo) ListAll(context.Context) ([]*catalog.Record, error) {
	return f.records, nil
}

func (f *fakeRepo) Upsert(_ context.Context, rec *catalog.Record) (int64, error) {
	for _, r := range f.records {
		if r.BrandName == rec.BrandName {
			id := r.ID
			*r = *rec
			r.ID = id
			return id, nil
		}
	}
	f.nextID++
	rec.ID = f.nextID
	f.records = append(f.records, rec)
	return rec.ID, nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeIndexWriter struct {
	ensured  int
	upserted [][]milvus.Entry
	deleted  [][]int64
}

func (f *fakeIndexWriter) EnsureCollection(context.Context) error {
	f.ensured++
	return nil
}

func (f *fakeIndexWriter) UpsertBatch(_ context.Context, entries []milvus.Entry) error {
	f.upserted = append(f.upserted, entries)
	return nil
}

func (f *fakeIndexWriter) Delete(_ context.Context, ids []int64) error {
	f.deleted = append(f.deleted, ids)
	return nil
}

func (f *fakeIndexWriter) totalEntries() int {
	n := 0
	for _, batch := range f.upserted {
		n += len(batch)
	}
	return n
}

type fakeBatchEncoder struct {
	dim   int
	err   error
	calls int
}

func (f *fakeBatchEncoder) EncodeBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for n := range texts {
		out[n] = make([]float32, f.dim)
		out[n][0] = float32(n + 1)
	}
	return out, nil
}

func (f *fakeBatchEncoder) Dimension() int { return f.dim }

type fakeDumps struct {
	objects map[string][]byte
}

func (f *fakeDumps) Fetch(_ context.Context, name string) ([]byte, error) {
	data, ok := f.objects[name]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "dump object not found")
	}
	return data, nil
}

type fakeHistoryWriter struct {
	mappings map[string][]int64
}

func (f *fakeHistoryWriter) RecordMapping(_ context.Context, prescriberID string, medicineID int64) error {
	if f.mappings == nil {
		f.mappings = map[string][]int64{}
	}
	f.mappings[prescriberID] = append(f.mappings[prescriberID], medicineID)
	return nil
}

func seededRepo() *fakeRepo {
	return &fakeRepo{
		nextID: 3,
		records: []*catalog.Record{
			{ID: 1, BrandName: "Augmentin 625 Duo", GenericName: "Amoxicillin + Clavulanate", OfficialStrength: "625 mg", Form: "tablet", CombinationFlag: true},
			{ID: 2, BrandName: "Amoxiclav 375", GenericName: "Amoxicillin + Clavulanate", OfficialStrength: "375 mg", Form: "tablet", CombinationFlag: true},
			{ID: 3, BrandName: "Crocin Advance", GenericName: "Paracetamol", OfficialStrength: "500 mg", Form: "tablet"},
		},
	}
}

func newTestService(repo *fakeRepo, index *fakeIndexWriter, dense *fakeBatchEncoder, dumps *fakeDumps) *Service {
	return NewService(ServiceDeps{
		Catalog:   repo,
		History:   &fakeHistoryWriter{},
		Index:     index,
		Dense:     dense,
		Sparse:    encoder.NewTermFrequencyEncoder(),
		Dumps:     dumps,
		BatchSize: 2,
	})
}

func TestRebuildIndexEmbedsEveryRecord(t *testing.T) {
	repo := seededRepo()
	index := &fakeIndexWriter{}
	svc := newTestService(repo, index, &fakeBatchEncoder{dim: 8}, nil)

	require.NoError(t, svc.RebuildIndex(context.Background()))

	assert.Equal(t, 1, index.ensured)
	assert.Equal(t, 3, index.totalEntries())
	// Batch size 2 splits three records into two upserts.
	assert.Len(t, index.upserted, 2)

	first := index.upserted[0][0]
	assert.Equal(t, int64(1), first.ID)
	require.NotNil(t, first.Sparse, "index entries carry sparse vectors once the vocabulary is fit")
}

func TestRebuildIndexFallsBackToDeterministicVectors(t *testing.T) {
	repo := seededRepo()
	index := &fakeIndexWriter{}
	dense := &fakeBatchEncoder{
		dim: 8,
		err: apperrors.New(apperrors.ErrCodeEncoderUnavailable, "no endpoint"),
	}
	svc := newTestService(repo, index, dense, nil)

	require.NoError(t, svc.RebuildIndex(context.Background()))

	want := encoder.DeterministicVector(repo.records[0].SearchText(), 8)
	assert.Equal(t, want, index.upserted[0][0].Dense)
}

func TestRebuildIndexSurfacesNonUnavailableEncoderError(t *testing.T) {
	repo := seededRepo()
	dense := &fakeBatchEncoder{
		dim: 8,
		err: apperrors.New(apperrors.ErrCodeInternal, "encoder crashed"),
	}
	svc := newTestService(repo, &fakeIndexWriter{}, dense, nil)

	err := svc.RebuildIndex(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInternal))
}

func TestUpsertRecordAssignsIDAndIndexes(t *testing.T) {
	repo := seededRepo()
	index := &fakeIndexWriter{}
	svc := newTestService(repo, index, &fakeBatchEncoder{dim: 8}, nil)

	rec := &catalog.Record{BrandName: "Pantoloc 40mg", GenericName: "Pantoprazole", OfficialStrength: "40 mg"}
	require.NoError(t, svc.UpsertRecord(context.Background(), rec))

	assert.Equal(t, int64(4), rec.ID)
	require.Equal(t, 1, index.totalEntries())
	assert.Equal(t, int64(4), index.upserted[0][0].ID)
}

func TestDeleteRecordRemovesFromBothStores(t *testing.T) {
	repo := seededRepo()
	index := &fakeIndexWriter{}
	svc := newTestService(repo, index, &fakeBatchEncoder{dim: 8}, nil)

	require.NoError(t, svc.DeleteRecord(context.Background(), 2))

	assert.Equal(t, []int64{2}, repo.deleted)
	assert.Equal(t, [][]int64{{2}}, index.deleted)
}

func TestImportDumpObjectUpsertsAndRebuilds(t *testing.T) {
	repo := seededRepo()
	index := &fakeIndexWriter{}
	dumps := &fakeDumps{objects: map[string][]byte{
		"dumps/catalog.json": []byte(`[
			{"brand_name": "Dolo 650", "generic_name": "Paracetamol", "official_strength": "650 mg", "form": "tablet"},
			{"brand_name": "Azee 500", "generic_name": "Azithromycin", "official_strength": "500 mg", "form": "tablet"}
		]`),
	}}
	svc := newTestService(repo, index, &fakeBatchEncoder{dim: 8}, dumps)

	require.NoError(t, svc.ImportDumpObject(context.Background(), "dumps/catalog.json"))

	assert.Len(t, repo.records, 5)
	// Rebuild indexes the grown catalog in full.
	assert.Equal(t, 5, index.totalEntries())
}

func TestImportDumpObjectRejectsInvalidDump(t *testing.T) {
	repo := seededRepo()
	dumps := &fakeDumps{objects: map[string][]byte{
		"dumps/bad.json": []byte(`[{"generic_name": "Paracetamol"}]`),
	}}
	svc := newTestService(repo, &fakeIndexWriter{}, &fakeBatchEncoder{dim: 8}, dumps)

	err := svc.ImportDumpObject(context.Background(), "dumps/bad.json")

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCatalogDumpInvalid))
	assert.Len(t, repo.records, 3, "invalid dump must not touch the catalog")
}

func TestRecordMappingWritesHistory(t *testing.T) {
	history := &fakeHistoryWriter{}
	svc := NewService(ServiceDeps{
		Catalog: seededRepo(),
		History: history,
		Index:   &fakeIndexWriter{},
		Dense:   &fakeBatchEncoder{dim: 8},
	})

	require.NoError(t, svc.RecordMapping(context.Background(), "dr-1", 1))
	require.NoError(t, svc.RecordMapping(context.Background(), "dr-1", 1))

	assert.Equal(t, []int64{1, 1}, history.mappings["dr-1"])
}
