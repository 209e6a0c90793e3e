// Package mention defines the extracted medicine mention: the structured but
// noisy attributes pulled from a prescription before any matching runs.
package mention

import "strings"

// Mention is one medicine reference extracted from prescription text.  All
// attribute fields are optional; an empty string means the extractor did not
// produce that attribute.  RawInput is always present.
type Mention struct {
	// RawInput is the uninterpreted mention text as it appeared on the
	// prescription.  Preserved verbatim through the whole pipeline.
	RawInput string `json:"raw_input"`

	// Brand is the extracted brand name, e.g. "Augmentin 625 Duo".
	Brand string `json:"medicine_name,omitempty"`

	// DosageVariant is the numeric variant token, e.g. "625".  Populated by
	// extraction or separated out of Brand during normalization.
	DosageVariant string `json:"dosage_variant,omitempty"`

	// GenericName is the extracted active-ingredient name.
	GenericName string `json:"generic_name,omitempty"`

	// Strength is the extracted dosage strength, e.g. "500mg".  Overridden
	// by the catalog's official strength on a successful match.
	Strength string `json:"strength,omitempty"`

	// Form is the extracted dosage form, e.g. "tab", "syrup".
	Form string `json:"form,omitempty"`

	// Frequency is the extracted dosing frequency, e.g. "bd", "1-0-1".
	Frequency string `json:"frequency,omitempty"`
}

// IsEmpty reports whether the mention carries no usable text at all.
func (m Mention) IsEmpty() bool {
	return strings.TrimSpace(m.RawInput) == "" &&
		strings.TrimSpace(m.Brand) == "" &&
		strings.TrimSpace(m.GenericName) == ""
}

// BestName returns the most specific name available for retrieval: the brand
// when present, otherwise the generic name, otherwise the raw input.
func (m Mention) BestName() string {
	if s := strings.TrimSpace(m.Brand); s != "" {
		return s
	}
	if s := strings.TrimSpace(m.GenericName); s != "" {
		return s
	}
	return strings.TrimSpace(m.RawInput)
}
