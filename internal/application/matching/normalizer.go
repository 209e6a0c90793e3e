package matching

import (
	"regexp"
	"strings"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/mention"
)

// formMap canonicalizes dosage-form abbreviations.  Unknown forms pass
// through lowercased.
var formMap = map[string]string{
	"tab":     "tablet",
	"tablet":  "tablet",
	"cap":     "capsule",
	"caps":    "capsule",
	"capsule": "capsule",
	"syp":     "syrup",
	"syr":     "syrup",
	"syrup":   "syrup",
}

// frequencyMap canonicalizes dosing-frequency shorthand.
var frequencyMap = map[string]string{
	"bd":  "2 times per day",
	"bid": "2 times per day",
	"tid": "3 times per day",
	"od":  "1 time per day",
}

var (
	firstDigitRun  = regexp.MustCompile(`\d+`)
	numericBrandTok = regexp.MustCompile(`\b\d+[a-zA-Z]*\b`)
)

// Normalizer canonicalizes one extracted mention into the form the
// retrieval and guardrail stages operate on, logging every rule it fires.
// Normalization is total (never fails) and idempotent: normalizing an
// already-normalized mention changes nothing and appends no entries beyond
// the unconditional ones.
type Normalizer struct{}

// NewNormalizer returns a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize returns the canonical form of m.  The input is never mutated.
func (n *Normalizer) Normalize(m mention.Mention, trail *Trail) mention.Mention {
	rawBrand := collapseSpaces(m.Brand)

	// Promote the first digit run embedded in the brand to the dosage
	// variant when extraction did not supply one ("Augmentin 625" → "625").
	variant := strings.TrimSpace(m.DosageVariant)
	if variant == "" {
		if tok := firstDigitRun.FindString(rawBrand); tok != "" {
			variant = tok
			trail.Append("Variant token stripped")
		}
	}

	// Remove numeric tokens (with optional unit suffix, "500mg") from the
	// brand so "augmentin 625" and "augmentin" retrieve identically.  If
	// stripping empties the brand, keep the lowercased original rather than
	// losing the name entirely.
	brand := collapseSpaces(numericBrandTok.ReplaceAllString(rawBrand, " "))
	brand = strings.ToLower(brand)
	if brand == "" {
		brand = strings.ToLower(rawBrand)
	}

	form := canonicalize(m.Form, formMap)
	if m.Form != "" && form != strings.ToLower(m.Form) {
		trail.Append("Normalization rule applied for dosage form")
	}

	frequency := canonicalize(m.Frequency, frequencyMap)
	if m.Frequency != "" && frequency != strings.ToLower(m.Frequency) {
		trail.Append("Normalization rule applied for frequency")
	}

	generic := strings.ToLower(strings.TrimSpace(m.GenericName))
	if m.Brand != brand || m.GenericName != generic {
		trail.Append("Normalization rule applied: lowercased extraction fields")
	}

	// A variant token and a free-text strength must never coexist past this
	// point: the variant is the cleaner signal, and a hallucinated strength
	// would otherwise leak into matching.
	strength := strings.TrimSpace(m.Strength)
	if variant != "" && strength != "" {
		trail.Append("Variant separation enforced: extracted strength cleared to prevent hallucinated mapping")
	}
	if variant != "" {
		strength = ""
	}

	return mention.Mention{
		RawInput:      m.RawInput,
		Brand:         brand,
		DosageVariant: variant,
		GenericName:   generic,
		Strength:      strength,
		Form:          form,
		Frequency:     frequency,
	}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// canonicalize lowercases and space-collapses raw, then maps it through
// table when a canonical form is known.
func canonicalize(raw string, table map[string]string) string {
	v := strings.ToLower(collapseSpaces(raw))
	if v == "" {
		return ""
	}
	if mapped, ok := table[v]; ok {
		return mapped
	}
	return v
}
