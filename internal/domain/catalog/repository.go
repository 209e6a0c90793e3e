package catalog

import "context"

// Repository is the read/write contract over the persistent catalog store.
// The matching pipeline uses only the read side; Upsert and Delete exist for
// the ingestion worker.
type Repository interface {
	// FindByID resolves a catalog record by its stable identifier.  Returns a
	// not-found error (pkg/errors, CAT_001) when the id does not resolve.
	FindByID(ctx context.Context, id int64) (*Record, error)

	// FindFirstByTerm returns the lowest-id record whose brand name, generic
	// name, or search text contains term (case-insensitive substring match).
	// Returns a not-found error when no record contains the term.
	FindFirstByTerm(ctx context.Context, term string) (*Record, error)

	// ListAll streams every catalog record ordered by ascending id.  Used by
	// the ingestion worker to rebuild the vector index and by the lexical
	// encoder to fit its vocabulary.
	ListAll(ctx context.Context) ([]*Record, error)

	// Upsert inserts the record, or updates it in place when a record with
	// the same brand name already exists.  Returns the persisted id.
	Upsert(ctx context.Context, rec *Record) (int64, error)

	// Delete removes the record with the given id.  Deleting an absent id is
	// not an error.
	Delete(ctx context.Context, id int64) error
}

// HistoryRepository exposes prescriber mapping history.  The matching
// pipeline reads mapping counts to boost candidates a prescriber has
// confirmed before; it never writes history itself.
type HistoryRepository interface {
	// MappingCount returns how many times prescriberID has been mapped to
	// catalog record catalogID.  Returns (0, nil) when no history row exists.
	MappingCount(ctx context.Context, prescriberID string, catalogID int64) (int, error)
}
