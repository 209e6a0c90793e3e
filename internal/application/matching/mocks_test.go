package matching

import (
	"context"
	"strings"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/catalog"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// fakeCatalog is an in-memory catalog store ordered by ascending id.
type fakeCatalog struct {
	records []*catalog.Record
}

func (f *fakeCatalog) FindByID(_ context.Context, id int64) (*catalog.Record, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrCodeCatalogRecordNotFound, "catalog record not found")
}

func (f *fakeCatalog) FindFirstByTerm(_ context.Context, term string) (*catalog.Record, error) {
	term = strings.ToLower(term)
	var best *catalog.Record
	for _, r := range f.records {
		if strings.Contains(strings.ToLower(r.BrandName), term) ||
			strings.Contains(strings.ToLower(r.GenericName), term) {
			if best == nil || r.ID < best.ID {
				best = r
			}
		}
	}
	if best == nil {
		return nil, apperrors.New(apperrors.ErrCodeCatalogRecordNotFound, "no record contains term")
	}
	return best, nil
}

func (f *fakeCatalog) ListAll(context.Context) ([]*catalog.Record, error) {
	return f.records, nil
}

func (f *fakeCatalog) Upsert(_ context.Context, rec *catalog.Record) (int64, error) {
	f.records = append(f.records, rec)
	return rec.ID, nil
}

func (f *fakeCatalog) Delete(context.Context, int64) error { return nil }

// fakeHistory serves mapping counts from a static table.
type fakeHistory struct {
	counts map[string]map[int64]int
}

func (f *fakeHistory) MappingCount(_ context.Context, prescriberID string, catalogID int64) (int, error) {
	return f.counts[prescriberID][catalogID], nil
}

// fakeIndex returns a canned hit or error and records the query it saw.
type fakeIndex struct {
	hit *IndexHit
	err error

	gotDense  []float32
	gotSparse *SparseVector
	calls     int
}

func (f *fakeIndex) Query(_ context.Context, dense []float32, sparse *SparseVector) (*IndexHit, error) {
	f.calls++
	f.gotDense = dense
	f.gotSparse = sparse
	return f.hit, f.err
}

// fakeDense returns a fixed vector or a canned error.
type fakeDense struct {
	vec []float32
	err error
}

func (f *fakeDense) Encode(context.Context, string) ([]float32, error) { return f.vec, f.err }
func (f *fakeDense) ModelName() string                                 { return "all-MiniLM-L6-v2" }
func (f *fakeDense) Dimension() int                                    { return len(f.vec) }

// fakeSparse returns fixed coordinates or a canned error.
type fakeSparse struct {
	indices []uint32
	values  []float32
	err     error
}

func (f *fakeSparse) EncodeQuery(string) ([]uint32, []float32, error) {
	return f.indices, f.values, f.err
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{records: []*catalog.Record{
		{ID: 1, BrandName: "Augmentin 625 Duo", GenericName: "Amoxicillin + Clavulanate", OfficialStrength: "625 mg", Form: "tablet", CombinationFlag: true},
		{ID: 2, BrandName: "Amoxiclav 375", GenericName: "Amoxicillin + Clavulanate", OfficialStrength: "375 mg", Form: "tablet", CombinationFlag: true},
		{ID: 3, BrandName: "Crocin Advance", GenericName: "Paracetamol", OfficialStrength: "500 mg", Form: "tablet"},
	}}
}

func testPolicy() *PolicyHolder {
	return NewPolicyHolder(DefaultPolicy())
}
