package matching

import (
	"context"
	"time"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/catalog"
	"github.com/turtacn/RxMatch-Intelligence/internal/domain/mention"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// Request is one matching request: extracted mentions in caller order plus
// the optional identity of the requesting prescriber.
type Request struct {
	Mentions     []mention.Mention
	PrescriberID string
}

// MetricsRecorder receives one observation per processed mention.  A nil
// recorder disables metrics.
type MetricsRecorder interface {
	ObserveMention(source string, tier string, elapsed time.Duration)
}

// Pipeline orchestrates the per-mention state machine
// (Start → Normalized → Retrieved → {NoMatch | Resolving → {StaleId |
// Matched}} → Done) and the batch loop around it.  Retrieval-layer failures
// never surface to the caller as errors; only malformed input does.
type Pipeline struct {
	normalizer *Normalizer
	retriever  *Retriever
	reranker   *HistoryReranker
	guardrails *GuardrailEngine
	catalog    catalog.Repository
	metrics    MetricsRecorder
	logger     logging.Logger
}

// PipelineDeps carries the orchestrator's collaborators.  Metrics and
// Logger are optional.
type PipelineDeps struct {
	Normalizer *Normalizer
	Retriever  *Retriever
	Reranker   *HistoryReranker
	Guardrails *GuardrailEngine
	Catalog    catalog.Repository
	Metrics    MetricsRecorder
	Logger     logging.Logger
}

// NewPipeline builds the orchestrator.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	return &Pipeline{
		normalizer: deps.Normalizer,
		retriever:  deps.Retriever,
		reranker:   deps.Reranker,
		guardrails: deps.Guardrails,
		catalog:    deps.Catalog,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// Process runs the full pipeline over every mention in the request,
// preserving input order.  The only caller-facing errors are an empty
// request and context cancellation; every retrieval or resolution failure
// degrades to a well-formed, manual-review-forced result instead.
func (p *Pipeline) Process(ctx context.Context, req Request) (*BatchResult, error) {
	if len(req.Mentions) == 0 {
		return nil, apperrors.InvalidParam("request contains no medicine mentions")
	}

	reqTrail := NewTrail()
	reqTrail.Append("Workflow started: Normalization -> Hybrid Retrieval -> History Re-rank -> Guardrails")

	results := make([]Result, 0, len(req.Mentions))
	for _, m := range req.Mentions {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeTimeout, "request cancelled")
		}
		results = append(results, p.processOne(ctx, m, req.PrescriberID, reqTrail))
	}

	reqTrail.Append("Workflow completed: final grounded payload generated")
	return &BatchResult{Results: results, Trail: reqTrail.Lines()}, nil
}

// processOne runs the state machine for a single mention.  The request
// trail is forked into the mention's local trail first, so request-wide
// decisions appear in every per-mention log.
func (p *Pipeline) processOne(ctx context.Context, m mention.Mention, prescriberID string, reqTrail *Trail) Result {
	start := time.Now()
	trail := reqTrail.Fork()

	normalized := p.normalizer.Normalize(m, trail)
	cand := p.retriever.Retrieve(ctx, normalized, trail)

	var match Match
	switch {
	case cand.IsNoMatch():
		trail.Append("Guardrail: no catalog record found, returning extraction-only result; manual review required")
		match = degradedMatch(normalized)
		trail.Append("Mention completed: extraction-only payload, not grounded against catalog")

	default:
		rec, err := p.catalog.FindByID(ctx, cand.CatalogID)
		if err != nil {
			// Stale or orphaned id despite earlier validation; degrade
			// exactly like the no-match path, with its own log line.
			trail.Appendf("Guardrail: candidate id=%d no longer resolves in catalog, returning extraction-only result", cand.CatalogID)
			if !apperrors.IsNotFound(err) {
				p.logger.Warn("candidate resolution failed",
					logging.Int64("candidate_id", cand.CatalogID), logging.Err(err))
			}
			match = degradedMatch(normalized)
			trail.Append("Mention completed: extraction-only payload, stale index reference")
			break
		}

		cand = p.reranker.Apply(ctx, cand, prescriberID, trail)
		match = p.guardrails.Apply(normalized, cand, rec, trail)
	}

	if p.metrics != nil {
		p.metrics.ObserveMention(cand.Source, string(match.RiskTier), time.Since(start))
	}

	return Result{
		RawInput:   m.RawInput,
		Normalized: normalized,
		Match:      match,
		Trail:      trail.Lines(),
	}
}
