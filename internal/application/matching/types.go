package matching

import (
	"github.com/turtacn/RxMatch-Intelligence/internal/domain/catalog"
	"github.com/turtacn/RxMatch-Intelligence/internal/domain/mention"
)

// RiskTier classifies how much a matched result can be trusted downstream.
type RiskTier string

const (
	RiskHigh   RiskTier = "High"
	RiskMedium RiskTier = "Medium"
	RiskLow    RiskTier = "Low"
)

// Candidate source labels recorded in retrieval metadata.
const (
	SourceVectorIndex     = "vector_index"
	SourceCatalogFallback = "local_catalog_fallback"
	SourceNone            = "none"
)

// Candidate is a retrieved catalog reference: a claim that catalog record
// CatalogID resembles the query, with a similarity score in [0, 1].  A
// candidate is only a pointer into the catalog; the record behind it must be
// re-resolved before anything is trusted.
type Candidate struct {
	// CatalogID is the referenced catalog record id, or catalog.NoMatchID
	// when no retrieval tier produced anything.
	CatalogID int64

	// Score is the retrieval similarity in [0, 1].  Zero for the sentinel.
	Score float64

	// Source names the retrieval tier that produced this candidate.
	Source string

	// MatchedTerm is the catalog term the lexical fallback matched on.
	// Empty for vector candidates and the sentinel.
	MatchedTerm string
}

// IsNoMatch reports whether this is the "nothing matched" sentinel.
func (c Candidate) IsNoMatch() bool {
	return c.CatalogID == catalog.NoMatchID
}

// NoMatchCandidate returns the sentinel candidate: reserved id, zero score.
func NoMatchCandidate() Candidate {
	return Candidate{CatalogID: catalog.NoMatchID, Score: 0, Source: SourceNone}
}

// Match is the final guardrailed result for one mention.  Every field is
// populated on every path: grounded matches carry catalog truth, degraded
// results carry the extraction attributes with "unknown" placeholders.
type Match struct {
	// ID is the matched catalog record id, or 0 when the result is degraded
	// (no candidate, or a stale candidate that no longer resolves).
	ID int64 `json:"id"`

	BrandName        string `json:"brand_name"`
	GenericName      string `json:"generic_name"`
	OfficialStrength string `json:"official_strength"`
	Form             string `json:"form"`
	CombinationFlag  bool   `json:"combination_flag"`

	// ConfidenceScore is the final clamped score in [0, 1], rounded to four
	// decimal places.  Zero on degraded paths.
	ConfidenceScore float64 `json:"final_similarity_score"`

	RiskTier             RiskTier `json:"risk_tier"`
	ManualReviewRequired bool     `json:"manual_review_required"`
}

// Grounded reports whether the match is backed by a live catalog record.
func (m Match) Grounded() bool {
	return m.ID > 0
}

// Result is the full pipeline outcome for one mention: the untouched input,
// the normalized form that drove retrieval, the guardrailed match, and the
// per-mention decision trail.
type Result struct {
	RawInput   string          `json:"original_raw_input"`
	Normalized mention.Mention `json:"extracted"`
	Match      Match           `json:"matched_medicine"`
	Trail      []string        `json:"decision_log"`
}

// BatchResult is the outcome of one pipeline request: per-mention results in
// input order plus the request-level decision trail.
type BatchResult struct {
	Results []Result `json:"medicines"`
	Trail   []string `json:"decision_log"`
}

// degradedMatch builds the well-formed fallback result used when no catalog
// record can ground the mention: id 0, zero score, High risk, manual review
// forced, extraction attributes preserved with "unknown" placeholders.
func degradedMatch(m mention.Mention) Match {
	return Match{
		ID:                   0,
		BrandName:            orUnknown(m.Brand),
		GenericName:          orUnknown(m.GenericName),
		OfficialStrength:     orUnknown(m.Strength),
		Form:                 orUnknown(m.Form),
		CombinationFlag:      false,
		ConfidenceScore:      0,
		RiskTier:             RiskHigh,
		ManualReviewRequired: true,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
