package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/mention"
	"github.com/turtacn/RxMatch-Intelligence/internal/intelligence/encoder"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

func newTestRetriever(idx VectorIndex, dense DenseEncoder, sparse SparseEncoder, cat *fakeCatalog) *Retriever {
	return NewRetriever(RetrieverDeps{
		Index:   idx,
		Dense:   dense,
		Sparse:  sparse,
		Catalog: cat,
		Policy:  testPolicy(),
	})
}

func TestBuildQueryText(t *testing.T) {
	q := BuildQueryText(mention.Mention{Brand: "augmentin", DosageVariant: "625", Form: "tablet"})
	assert.Equal(t, "augmentin 625 tablet", q)

	q = BuildQueryText(mention.Mention{Brand: "crocin"})
	assert.Equal(t, "crocin", q)
}

func TestRetrieveVectorHitResolvesInCatalog(t *testing.T) {
	idx := &fakeIndex{hit: &IndexHit{ID: 1, Score: 0.91}}
	r := newTestRetriever(idx, nil, nil, testCatalog())
	trail := NewTrail()

	cand := r.Retrieve(context.Background(), mention.Mention{Brand: "augmentin", DosageVariant: "625"}, trail)

	assert.Equal(t, int64(1), cand.CatalogID)
	assert.Equal(t, 0.91, cand.Score)
	assert.Equal(t, SourceVectorIndex, cand.Source)
	assert.Contains(t, trail.Lines(), "Hybrid vector query executed")
}

func TestRetrieveStaleVectorIDFallsBackToLexical(t *testing.T) {
	idx := &fakeIndex{hit: &IndexHit{ID: 99, Score: 0.95}}
	r := newTestRetriever(idx, nil, nil, testCatalog())
	trail := NewTrail()

	cand := r.Retrieve(context.Background(), mention.Mention{Brand: "augmentin"}, trail)

	assert.Equal(t, int64(1), cand.CatalogID)
	assert.Equal(t, SourceCatalogFallback, cand.Source)
	assert.Equal(t, 0.78, cand.Score)
	assert.Equal(t, "augmentin", cand.MatchedTerm)
	assert.Contains(t, trail.Lines(), "Vector index returned stale id=99 not present in catalog: falling back to local search")
}

func TestRetrieveIndexUnavailableFallsBackToLexical(t *testing.T) {
	idx := &fakeIndex{err: apperrors.Unavailable("index down")}
	r := newTestRetriever(idx, nil, nil, testCatalog())
	trail := NewTrail()

	cand := r.Retrieve(context.Background(), mention.Mention{GenericName: "paracetamol"}, trail)

	assert.Equal(t, int64(3), cand.CatalogID)
	assert.Equal(t, "paracetamol", cand.MatchedTerm)
	assert.Contains(t, trail.Lines(), "Vector index unavailable: deterministic catalog fallback engaged")
}

func TestRetrieveWithoutIndexUsesLexicalTier(t *testing.T) {
	r := newTestRetriever(nil, nil, nil, testCatalog())
	trail := NewTrail()

	cand := r.Retrieve(context.Background(), mention.Mention{Brand: "amoxiclav"}, trail)

	assert.Equal(t, int64(2), cand.CatalogID)
	assert.Contains(t, trail.Lines(), "Vector index not configured: deterministic catalog fallback engaged")
	assert.Contains(t, trail.Lines(), "Hybrid retrieval fallback: local catalog candidate selected")
}

func TestRetrieveSentinelWhenNothingMatches(t *testing.T) {
	r := newTestRetriever(nil, nil, nil, testCatalog())
	trail := NewTrail()

	cand := r.Retrieve(context.Background(), mention.Mention{Brand: "nosuchdrug"}, trail)

	assert.True(t, cand.IsNoMatch())
	assert.Zero(t, cand.Score)
	assert.Contains(t, trail.Lines(), "No catalog candidate found at any retrieval tier")
}

func TestRetrieveDenseEncoderFallbackIsDeterministic(t *testing.T) {
	idx := &fakeIndex{hit: &IndexHit{ID: 1, Score: 0.9}}
	dense := &fakeDense{err: apperrors.Unavailable("encoder not initialised")}
	r := newTestRetriever(idx, dense, nil, testCatalog())
	trail := NewTrail()

	m := mention.Mention{Brand: "augmentin", DosageVariant: "625", Form: "tablet"}
	r.Retrieve(context.Background(), m, trail)

	want := encoder.DeterministicVector("augmentin 625 tablet", encoder.DefaultDimension)
	require.Equal(t, want, idx.gotDense)
	assert.Contains(t, trail.Lines(), "Dense vector generated using deterministic fallback embedding")
}

func TestRetrieveUsesRealEncoderWhenAvailable(t *testing.T) {
	idx := &fakeIndex{hit: &IndexHit{ID: 1, Score: 0.9}}
	dense := &fakeDense{vec: []float32{0.1, 0.2, 0.3}}
	sparse := &fakeSparse{indices: []uint32{2, 7}, values: []float32{1.5, 0.5}}
	r := newTestRetriever(idx, dense, sparse, testCatalog())
	trail := NewTrail()

	r.Retrieve(context.Background(), mention.Mention{Brand: "augmentin"}, trail)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, idx.gotDense)
	require.NotNil(t, idx.gotSparse)
	assert.Equal(t, []uint32{2, 7}, idx.gotSparse.Indices)
	assert.Contains(t, trail.Lines(), "Dense vector generated using all-MiniLM-L6-v2")
	assert.Contains(t, trail.Lines(), "Sparse vector generated using term-frequency encoder")
}

func TestRetrieveSparseEncoderFailureIsSkipped(t *testing.T) {
	idx := &fakeIndex{hit: &IndexHit{ID: 1, Score: 0.9}}
	sparse := &fakeSparse{err: apperrors.Unavailable("not fit")}
	r := newTestRetriever(idx, nil, sparse, testCatalog())
	trail := NewTrail()

	r.Retrieve(context.Background(), mention.Mention{Brand: "augmentin"}, trail)

	assert.Nil(t, idx.gotSparse)
	assert.Contains(t, trail.Lines(), "Sparse encoder unavailable: lexical sparse component skipped")
}

func TestFallbackTermsOrderAndDeduplication(t *testing.T) {
	terms := fallbackTerms(mention.Mention{
		Brand:       "co amoxiclav",
		GenericName: "Amoxicillin",
	})

	// Full brand first, then generic, then brand tokens longer than three
	// characters ("co" is dropped).
	assert.Equal(t, []string{"co amoxiclav", "amoxicillin", "amoxiclav"}, terms)
}

func TestFallbackTermsSkipUnknownBrand(t *testing.T) {
	terms := fallbackTerms(mention.Mention{Brand: "unknown", GenericName: "paracetamol"})
	assert.Equal(t, []string{"paracetamol"}, terms)
}
