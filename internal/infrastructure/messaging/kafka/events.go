// Package kafka carries catalog-change and mapping-confirmation events
// between the ingestion surfaces and the catalog sync worker.
package kafka

import "encoding/json"

// Topic names.
const (
	TopicCatalogChanges   = "rxmatch.catalog.changes"
	TopicMappingConfirmed = "rxmatch.mapping.confirmed"
)

// Catalog event types.
const (
	EventCatalogUpsert = "catalog.upsert"
	EventCatalogDelete = "catalog.delete"
	EventDumpAvailable = "catalog.dump_available"
)

// CatalogEvent is one change to the ground-truth catalog.  Upserts carry
// the full record payload; deletes carry only the id; dump events name an
// object in the dump bucket to bulk-import.
type CatalogEvent struct {
	Type string `json:"type"`

	ID               int64  `json:"id,omitempty"`
	BrandName        string `json:"brand_name,omitempty"`
	GenericName      string `json:"generic_name,omitempty"`
	OfficialStrength string `json:"official_strength,omitempty"`
	Form             string `json:"form,omitempty"`
	CombinationFlag  bool   `json:"combination_flag,omitempty"`

	// DumpObject is the object key for EventDumpAvailable.
	DumpObject string `json:"dump_object,omitempty"`
}

// MappingEvent records that a prescriber confirmed a pipeline match, which
// feeds the history re-ranker's prior.
type MappingEvent struct {
	PrescriberID string `json:"prescriber_id"`
	MedicineID   int64  `json:"medicine_id"`
}

// Encode renders an event as its wire payload.
func Encode(event any) ([]byte, error) {
	return json.Marshal(event)
}
