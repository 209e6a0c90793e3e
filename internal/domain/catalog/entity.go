// Package catalog defines the authoritative medicine catalog domain: the
// ground-truth drug record entity and the repository contracts the matching
// pipeline consumes.  Records are created and updated by the ingestion
// worker; the matching pipeline only ever reads them.
package catalog

import (
	"regexp"
	"strings"
	"time"
)

// NoMatchID is the reserved sentinel meaning "no catalog record matched".
// It is negative so it can never collide with a real autoincrement id.
const NoMatchID int64 = -1

var digitRun = regexp.MustCompile(`\d+`)

// Record is one authoritative drug product in the ground-truth catalog.
type Record struct {
	// ID is the stable positive identifier.  Retrieval candidates referencing
	// an ID that no longer resolves are treated as stale, never trusted.
	ID int64

	// BrandName is the unique marketed name, possibly carrying an embedded
	// dosage variant token ("Augmentin 625 Duo").
	BrandName string

	// GenericName is the active-ingredient name.
	GenericName string

	// OfficialStrength is the authoritative dosage; it always overrides
	// whatever strength was extracted upstream.
	OfficialStrength string

	// Form is the dosage form ("tablet", "syrup"); may be empty.
	Form string

	// CombinationFlag marks fixed-dose combinations of multiple active
	// ingredients.  Once true, generic-level decomposition is forbidden.
	CombinationFlag bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ImpliedVariant returns the first run of digits embedded in the brand name,
// which is how catalog records encode their dosage variant ("625" from
// "Augmentin 625 Duo").  Empty when the brand name carries no digits.
func (r *Record) ImpliedVariant() string {
	return digitRun.FindString(r.BrandName)
}

// SearchText returns the text indexed for lexical and vector retrieval:
// brand, generic, and form joined by single spaces.
func (r *Record) SearchText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.BrandName, r.GenericName, r.Form} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
