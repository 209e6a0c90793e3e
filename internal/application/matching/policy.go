package matching

import (
	"math"
	"sync/atomic"

	"github.com/turtacn/RxMatch-Intelligence/internal/config"
)

// Policy carries the scoring thresholds and penalty magnitudes the guardrail
// engine applies.  Policies are immutable once built; hot reloads swap in a
// whole new Policy via PolicyHolder rather than mutating one in place.
type Policy struct {
	HighConfidenceThreshold   float64
	MediumConfidenceThreshold float64
	VariantMismatchPenalty    float64
	VariantAbsencePenalty     float64
	FormMismatchPenalty       float64
	HistoryBoostPerMapping    float64
	HistoryBoostCap           float64
	LexicalFallbackScore      float64
}

// PolicyFromConfig builds a Policy from validated matching configuration.
func PolicyFromConfig(cfg config.MatchingConfig) Policy {
	return Policy{
		HighConfidenceThreshold:   cfg.HighConfidenceThreshold,
		MediumConfidenceThreshold: cfg.MediumConfidenceThreshold,
		VariantMismatchPenalty:    cfg.VariantMismatchPenalty,
		VariantAbsencePenalty:     cfg.VariantAbsencePenalty,
		FormMismatchPenalty:       cfg.FormMismatchPenalty,
		HistoryBoostPerMapping:    cfg.HistoryBoostPerMapping,
		HistoryBoostCap:           cfg.HistoryBoostCap,
		LexicalFallbackScore:      cfg.LexicalFallbackScore,
	}
}

// DefaultPolicy returns the shipped operational policy.
func DefaultPolicy() Policy {
	return PolicyFromConfig(NewDefaultMatchingConfig())
}

// NewDefaultMatchingConfig returns the matching section of the platform
// defaults without materialising a full Config.
func NewDefaultMatchingConfig() config.MatchingConfig {
	return config.NewDefaultConfig().Matching
}

// HistoryBoost returns the confidence boost earned by mappingCount prior
// confirmed mappings, capped at HistoryBoostCap.
func (p Policy) HistoryBoost(mappingCount int) float64 {
	if mappingCount <= 0 {
		return 0
	}
	return math.Min(p.HistoryBoostCap, p.HistoryBoostPerMapping*float64(mappingCount))
}

// RiskTier classifies a final confidence score against the policy
// thresholds.
func (p Policy) RiskTier(score float64) RiskTier {
	switch {
	case score >= p.HighConfidenceThreshold:
		return RiskHigh
	case score >= p.MediumConfidenceThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ClampScore restricts score to [0, 1] and rounds it to four decimal places.
// Applied exactly once, after all penalties and boosts.
func ClampScore(score float64) float64 {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return math.Round(score*10000) / 10000
}

// PolicyHolder is an atomically swappable policy reference shared between
// the serving path and the configuration hot-reload watcher.
type PolicyHolder struct {
	current atomic.Pointer[Policy]
}

// NewPolicyHolder returns a holder initialised with p.
func NewPolicyHolder(p Policy) *PolicyHolder {
	h := &PolicyHolder{}
	h.Store(p)
	return h
}

// Load returns the active policy.
func (h *PolicyHolder) Load() Policy {
	return *h.current.Load()
}

// Store replaces the active policy.
func (h *PolicyHolder) Store(p Policy) {
	h.current.Store(&p)
}
