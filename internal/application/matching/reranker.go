package matching

import (
	"context"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/catalog"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
)

// HistoryReranker applies a bounded additive boost to candidates the
// requesting prescriber has confirmed before.  The boost is capped so a
// frequent-but-wrong historical mapping can never dominate a fresh
// low-confidence retrieval.
type HistoryReranker struct {
	history catalog.HistoryRepository
	policy  *PolicyHolder
	logger  logging.Logger
}

// NewHistoryReranker builds a reranker over the given history store.
func NewHistoryReranker(history catalog.HistoryRepository, policy *PolicyHolder, logger logging.Logger) *HistoryReranker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HistoryReranker{history: history, policy: policy, logger: logger}
}

// Apply returns the candidate with the prescriber prior applied.  When
// prescriberID is empty, the history store is absent, or the lookup fails,
// the candidate passes through unchanged; history is a best-effort signal,
// never a failure source.
func (r *HistoryReranker) Apply(ctx context.Context, cand Candidate, prescriberID string, trail *Trail) Candidate {
	if prescriberID == "" || r.history == nil {
		return cand
	}

	count, err := r.history.MappingCount(ctx, prescriberID, cand.CatalogID)
	if err != nil {
		r.logger.Warn("prescriber history lookup failed",
			logging.String("prescriber_id", prescriberID), logging.Err(err))
		return cand
	}
	if count <= 0 {
		trail.Append("Bayesian prescriber prior: no historical mapping found")
		return cand
	}

	boost := r.policy.Load().HistoryBoost(count)
	boosted := cand.Score + boost
	if boosted > 1.0 {
		boosted = 1.0
	}
	trail.Appendf("Bayesian prescriber prior applied: +%.4g score boost from history", boost)

	cand.Score = boosted
	return cand
}
