package matching

import (
	"strings"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/catalog"
	"github.com/turtacn/RxMatch-Intelligence/internal/domain/mention"
)

// GuardrailEngine runs the deterministic post-match penalty and override
// chain: the normalized mention is compared against the authoritative
// catalog record behind the chosen candidate, unreliable extracted fields
// are overwritten with catalog truth, and the final score is classified into
// a risk tier.  Pure and total: given a non-nil record it always produces a
// well-formed Match.
type GuardrailEngine struct {
	policy *PolicyHolder
}

// NewGuardrailEngine builds an engine reading the active policy from holder.
func NewGuardrailEngine(policy *PolicyHolder) *GuardrailEngine {
	return &GuardrailEngine{policy: policy}
}

// Apply produces the final Match for a resolved candidate.  Every penalty,
// lock, and override that fires appends one trail entry.
func (e *GuardrailEngine) Apply(m mention.Mention, cand Candidate, rec *catalog.Record, trail *Trail) Match {
	p := e.policy.Load()
	score := cand.Score

	trail.Appendf("Post-match comparison executed: candidate %d checked against catalog record %d", cand.CatalogID, rec.ID)

	// Variant check against the variant implied by the catalog brand name.
	mentionVariant := strings.TrimSpace(m.DosageVariant)
	recordVariant := rec.ImpliedVariant()
	switch {
	case mentionVariant != "" && recordVariant != "" && mentionVariant != recordVariant:
		score -= p.VariantMismatchPenalty
		trail.Append("Variant mismatch penalty applied")
	case mentionVariant != "" && recordVariant == "":
		score -= p.VariantAbsencePenalty
		trail.Append("Variant mismatch penalty applied")
	}

	// Form check, case-insensitive.  A record without a form gives us
	// nothing to judge against, so that case is a logged skip, not a
	// penalty.
	recordForm := strings.ToLower(rec.Form)
	switch {
	case m.Form != "" && recordForm != "" && strings.ToLower(m.Form) != recordForm:
		score -= p.FormMismatchPenalty
		trail.Append("Form mismatch penalty applied")
	case m.Form != "" && recordForm == "":
		trail.Append("Form comparison skipped: catalog record has no form value")
	}

	// Combination lock: purely a policy statement, never a score effect.
	if rec.CombinationFlag {
		trail.Append("Combination lock enforced")
		trail.Append("Generic splitting blocked due to combination flag")
	}

	// The catalog is ground truth for dosing; the extracted strength is
	// always discarded.
	trail.Append("Official strength injected")
	trail.Append("Extracted strength overwritten with catalog official strength")

	score = ClampScore(score)
	tier := p.RiskTier(score)
	manualReview := tier == RiskLow

	trail.Appendf("Confidence classification computed: %s", tier)
	if manualReview {
		trail.Append("Risk-based routing: Manual Review Required")
	}

	form := rec.Form
	if form == "" {
		form = "unknown"
	}

	return Match{
		ID:                   rec.ID,
		BrandName:            rec.BrandName,
		GenericName:          rec.GenericName,
		OfficialStrength:     rec.OfficialStrength,
		Form:                 form,
		CombinationFlag:      rec.CombinationFlag,
		ConfidenceScore:      score,
		RiskTier:             tier,
		ManualReviewRequired: manualReview,
	}
}
