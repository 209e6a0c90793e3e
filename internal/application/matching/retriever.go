package matching

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/catalog"
	"github.com/turtacn/RxMatch-Intelligence/internal/domain/mention"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RxMatch-Intelligence/internal/intelligence/encoder"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// DenseEncoder produces dense semantic embeddings for query text.  An
// implementation that cannot initialise reports unavailability through a
// SERVICE_UNAVAILABLE error; the retriever then degrades to the
// deterministic fallback vector instead of failing the request.
type DenseEncoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	ModelName() string
	Dimension() int
}

// SparseEncoder produces lexical sparse vectors in coordinate form for
// query text.  Optional: when encoding fails the sparse component is
// skipped, never fatal.
type SparseEncoder interface {
	EncodeQuery(text string) (indices []uint32, values []float32, err error)
}

// SparseVector is a lexical sparse embedding in coordinate form.
type SparseVector struct {
	Indices []uint32
	Values  []float32
}

// IndexHit is a top-1 answer from the external vector index.
type IndexHit struct {
	ID    int64
	Score float64
}

// VectorIndex is the external similarity index.  Query returns (nil, nil)
// when the index answered but held no candidate; an unavailability error
// (SERVICE_UNAVAILABLE code) when the index cannot be reached or is not
// configured; any other error for a failed query.  All three non-hit shapes
// degrade to the lexical fallback tier.
type VectorIndex interface {
	Query(ctx context.Context, dense []float32, sparse *SparseVector) (*IndexHit, error)
}

// Retriever resolves a normalized mention to a single candidate reference
// through strictly ordered tiers: hybrid vector search, then local lexical
// catalog search, then the no-match sentinel.  Retrieve never returns an
// error; every failure degrades to the next tier.
type Retriever struct {
	index   VectorIndex
	dense   DenseEncoder
	sparse  SparseEncoder
	catalog catalog.Repository

	embeddingDim  int
	searchTimeout time.Duration
	policy        *PolicyHolder
	logger        logging.Logger
}

// RetrieverDeps carries the retriever's collaborators.  Index, Dense, and
// Sparse may be nil; Catalog and Policy are required.
type RetrieverDeps struct {
	Index         VectorIndex
	Dense         DenseEncoder
	Sparse        SparseEncoder
	Catalog       catalog.Repository
	EmbeddingDim  int
	SearchTimeout time.Duration
	Policy        *PolicyHolder
	Logger        logging.Logger
}

// NewRetriever builds a Retriever from its dependencies.
func NewRetriever(deps RetrieverDeps) *Retriever {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.EmbeddingDim <= 0 {
		deps.EmbeddingDim = encoder.DefaultDimension
	}
	if deps.SearchTimeout <= 0 {
		deps.SearchTimeout = 3 * time.Second
	}
	return &Retriever{
		index:         deps.Index,
		dense:         deps.Dense,
		sparse:        deps.Sparse,
		catalog:       deps.Catalog,
		embeddingDim:  deps.EmbeddingDim,
		searchTimeout: deps.SearchTimeout,
		policy:        deps.Policy,
		logger:        deps.Logger,
	}
}

// BuildQueryText assembles the retrieval query from the normalized mention:
// brand, dosage variant, and form, non-empty parts joined with single
// spaces.
func BuildQueryText(m mention.Mention) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{m.Brand, m.DosageVariant, m.Form} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Retrieve returns the best candidate for the normalized mention.  The
// sentinel candidate, not an error, represents total retrieval failure.
func (r *Retriever) Retrieve(ctx context.Context, m mention.Mention, trail *Trail) Candidate {
	query := BuildQueryText(m)

	if cand, ok := r.queryVectorIndex(ctx, query, trail); ok {
		return cand
	}
	if cand, ok := r.lexicalFallback(ctx, m, trail); ok {
		trail.Append("Hybrid retrieval fallback: local catalog candidate selected")
		return cand
	}

	trail.Append("No catalog candidate found at any retrieval tier")
	return NoMatchCandidate()
}

// queryVectorIndex runs the hybrid vector tier.  Returns ok=false whenever
// the tier produced no usable, catalog-resolvable candidate.
func (r *Retriever) queryVectorIndex(ctx context.Context, query string, trail *Trail) (Candidate, bool) {
	if r.index == nil {
		trail.Append("Vector index not configured: deterministic catalog fallback engaged")
		return Candidate{}, false
	}

	dense := r.encodeDense(ctx, query, trail)
	sparse := r.encodeSparse(query, trail)

	qctx, cancel := context.WithTimeout(ctx, r.searchTimeout)
	defer cancel()

	hit, err := r.index.Query(qctx, dense, sparse)
	if err != nil {
		if apperrors.IsUnavailable(err) {
			trail.Append("Vector index unavailable: deterministic catalog fallback engaged")
		} else {
			trail.Append("Vector index query failed: deterministic catalog fallback engaged")
		}
		r.logger.Warn("vector index query degraded", logging.Err(err))
		return Candidate{}, false
	}
	if hit == nil {
		trail.Append("Vector index returned no candidate: deterministic catalog fallback engaged")
		return Candidate{}, false
	}

	// The index may be stale relative to the catalog; never trust an id the
	// catalog cannot resolve right now.
	if _, err := r.catalog.FindByID(ctx, hit.ID); err != nil {
		if apperrors.IsNotFound(err) {
			trail.Appendf("Vector index returned stale id=%d not present in catalog: falling back to local search", hit.ID)
		} else {
			trail.Append("Catalog validation of vector candidate failed: falling back to local search")
			r.logger.Warn("candidate validation failed", logging.Int64("candidate_id", hit.ID), logging.Err(err))
		}
		return Candidate{}, false
	}

	trail.Append("Hybrid vector query executed")
	return Candidate{CatalogID: hit.ID, Score: hit.Score, Source: SourceVectorIndex}, true
}

func (r *Retriever) encodeDense(ctx context.Context, query string, trail *Trail) []float32 {
	if r.dense != nil {
		vec, err := r.dense.Encode(ctx, query)
		if err == nil && len(vec) > 0 {
			trail.Appendf("Dense vector generated using %s", r.dense.ModelName())
			return vec
		}
		r.logger.Debug("dense encoder degraded to fallback embedding", logging.Err(err))
	}
	trail.Append("Dense vector generated using deterministic fallback embedding")
	return encoder.DeterministicVector(query, r.embeddingDim)
}

func (r *Retriever) encodeSparse(query string, trail *Trail) *SparseVector {
	if r.sparse == nil {
		trail.Append("Sparse encoder unavailable: lexical sparse component skipped")
		return nil
	}
	indices, values, err := r.sparse.EncodeQuery(query)
	if err != nil || len(indices) == 0 {
		trail.Append("Sparse encoder unavailable: lexical sparse component skipped")
		return nil
	}
	trail.Append("Sparse vector generated using term-frequency encoder")
	return &SparseVector{Indices: indices, Values: values}
}

// lexicalFallback runs the local catalog tier: ranked substring probes over
// brand, generic name, and long brand tokens, first hit wins at the fixed
// fallback confidence.
func (r *Retriever) lexicalFallback(ctx context.Context, m mention.Mention, trail *Trail) (Candidate, bool) {
	for _, term := range fallbackTerms(m) {
		rec, err := r.catalog.FindFirstByTerm(ctx, term)
		if err != nil {
			if !apperrors.IsNotFound(err) {
				r.logger.Warn("lexical fallback probe failed", logging.String("term", term), logging.Err(err))
			}
			continue
		}
		trail.Appendf("Lexical catalog fallback matched term %q", term)
		return Candidate{
			CatalogID:   rec.ID,
			Score:       r.policy.Load().LexicalFallbackScore,
			Source:      SourceCatalogFallback,
			MatchedTerm: term,
		}, true
	}
	return Candidate{}, false
}

// fallbackTerms builds the ordered, deduplicated probe list: full lowercased
// brand, then generic name, then each brand token longer than 3 characters.
func fallbackTerms(m mention.Mention) []string {
	var terms []string
	seen := map[string]bool{}
	add := func(t string) {
		t = strings.TrimSpace(strings.ToLower(t))
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		terms = append(terms, t)
	}

	if b := strings.ToLower(m.Brand); b != "" && b != "unknown" {
		add(b)
	}
	add(m.GenericName)
	for _, tok := range strings.Fields(strings.ToLower(m.Brand)) {
		if len(tok) > 3 && tok != "unknown" {
			add(tok)
		}
	}
	return terms
}
