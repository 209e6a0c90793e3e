// Package extraction turns raw prescription input into ordered medicine
// mentions.  Text input is handled by a local token classifier; image input
// is delegated to an external vision extractor behind the ImageExtractor
// port.
package extraction

import (
	"strings"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/mention"
)

// formTokens are the dosage-form keywords the local parser recognises.
var formTokens = map[string]bool{
	"tab": true, "tablet": true, "tablets": true,
	"cap": true, "capsule": true, "capsules": true,
	"syrup": true, "inhaler": true, "injection": true,
	"cream": true, "ointment": true, "drops": true,
	"solution": true, "suspension": true,
}

// ParseMention classifies each whitespace token of raw as a dosage form, a
// strength (unit-suffixed), a variant (pure digits or a digit fraction like
// "500/125"), or a brand word.  Multi-word brands survive intact:
// "Augmentin 625 Duo" parses as brand "Augmentin Duo", variant "625".
func ParseMention(raw string) mention.Mention {
	tokens := strings.Fields(raw)

	var brandParts []string
	var variant, form, strength string

	for _, token := range tokens {
		cleaned := strings.Trim(strings.ToLower(token), ",.;")

		if form == "" && formTokens[cleaned] {
			form = cleaned
			continue
		}
		if strength == "" && isStrengthToken(cleaned) {
			strength = cleaned
			continue
		}
		if variant == "" && isDigits(cleaned) {
			variant = cleaned
			continue
		}
		if variant == "" && isDigitFraction(cleaned) {
			variant = cleaned
			continue
		}
		brandParts = append(brandParts, token)
	}

	brand := strings.Join(brandParts, " ")
	if brand == "" {
		brand = "unknown"
	}

	return mention.Mention{
		RawInput:      raw,
		Brand:         brand,
		DosageVariant: variant,
		Strength:      strength,
		Form:          form,
	}
}

func isStrengthToken(s string) bool {
	return strings.HasSuffix(s, "mg") ||
		strings.HasSuffix(s, "ml") ||
		strings.HasSuffix(s, "mcg") ||
		strings.Contains(s, "mg/")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isDigitFraction accepts tokens like "500/125" where every non-empty slash
// segment is purely numeric.
func isDigitFraction(s string) bool {
	if !strings.Contains(s, "/") {
		return false
	}
	any := false
	for _, part := range strings.Split(s, "/") {
		if part == "" {
			continue
		}
		if !isDigits(part) {
			return false
		}
		any = true
	}
	return any
}
