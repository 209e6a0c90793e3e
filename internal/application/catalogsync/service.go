// Package catalogsync keeps the vector index and prescriber history in step
// with the ground-truth catalog.  It consumes catalog-change events, imports
// bulk dumps from object storage, and rebuilds the retrieval index so the
// matching pipeline always resolves hits against live records.
package catalogsync

import (
	"context"
	"time"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/catalog"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/search/milvus"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"

	"github.com/turtacn/RxMatch-Intelligence/internal/application/matching"
	"github.com/turtacn/RxMatch-Intelligence/internal/intelligence/encoder"
)

// IndexWriter is the write side of the vector index.
type IndexWriter interface {
	EnsureCollection(ctx context.Context) error
	UpsertBatch(ctx context.Context, entries []milvus.Entry) error
	Delete(ctx context.Context, ids []int64) error
}

// DenseBatchEncoder embeds several texts in one request.
type DenseBatchEncoder interface {
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// SparseFitter fits a lexical vocabulary and encodes index-side sparse
// vectors from it.
type SparseFitter interface {
	Fit(corpus []string)
	EncodeQuery(text string) ([]uint32, []float32, error)
}

// DumpFetcher reads a bulk catalog dump object.
type DumpFetcher interface {
	Fetch(ctx context.Context, objectName string) ([]byte, error)
}

// HistoryWriter persists confirmed prescriber mappings.
type HistoryWriter interface {
	RecordMapping(ctx context.Context, prescriberID string, medicineID int64) error
}

// SyncMetrics receives worker observations.  Nil-safe via noopMetrics.
type SyncMetrics interface {
	ObserveCatalogEvent(eventType, status string)
	ObserveIndexSync(entries int, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveCatalogEvent(string, string)  {}
func (noopMetrics) ObserveIndexSync(int, time.Duration) {}

// ServiceDeps carries the collaborators for NewService.
type ServiceDeps struct {
	Catalog catalog.Repository
	History HistoryWriter
	Index   IndexWriter
	Dense   DenseBatchEncoder
	Sparse  SparseFitter
	Dumps   DumpFetcher
	Metrics SyncMetrics
	Logger  logging.Logger

	// BatchSize bounds one index upsert; <=0 selects the default.
	BatchSize int
}

const defaultBatchSize = 64

// Service is the catalog sync worker's application core.
type Service struct {
	catalog   catalog.Repository
	history   HistoryWriter
	index     IndexWriter
	dense     DenseBatchEncoder
	sparse    SparseFitter
	dumps     DumpFetcher
	metrics   SyncMetrics
	logger    logging.Logger
	batchSize int
}

// NewService wires a Service from its dependencies.
func NewService(deps ServiceDeps) *Service {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = defaultBatchSize
	}
	return &Service{
		catalog:   deps.Catalog,
		history:   deps.History,
		index:     deps.Index,
		dense:     deps.Dense,
		sparse:    deps.Sparse,
		dumps:     deps.Dumps,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		batchSize: deps.BatchSize,
	}
}

// RebuildIndex re-embeds the full catalog and upserts every record into the
// vector index.  The sparse vocabulary is refit on the same corpus so query
// and index coordinates agree.
func (s *Service) RebuildIndex(ctx context.Context) error {
	start := time.Now()

	records, err := s.catalog.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		s.logger.Warn("Catalog is empty: nothing to index")
		return nil
	}

	corpus := make([]string, len(records))
	for n, rec := range records {
		corpus[n] = rec.SearchText()
	}
	if s.sparse != nil {
		s.sparse.Fit(corpus)
	}

	if err := s.index.EnsureCollection(ctx); err != nil {
		return err
	}

	for offset := 0; offset < len(records); offset += s.batchSize {
		end := offset + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		entries, err := s.encodeEntries(ctx, records[offset:end], corpus[offset:end])
		if err != nil {
			return err
		}
		if err := s.index.UpsertBatch(ctx, entries); err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	s.metrics.ObserveIndexSync(len(records), elapsed)
	s.logger.Info("Vector index rebuilt",
		logging.Int("records", len(records)),
		logging.Duration("elapsed", elapsed))
	return nil
}

func (s *Service) encodeEntries(ctx context.Context, records []*catalog.Record, corpus []string) ([]milvus.Entry, error) {
	dense, err := s.dense.EncodeBatch(ctx, corpus)
	if err != nil {
		if !apperrors.IsUnavailable(err) {
			return nil, err
		}
		// Same fallback family the query side uses, so similarity between
		// query and index vectors stays meaningful without a live encoder.
		s.logger.Warn("Dense encoder unavailable: indexing with deterministic fallback vectors")
		dense = make([][]float32, len(corpus))
		for n, text := range corpus {
			dense[n] = encoder.DeterministicVector(text, s.dense.Dimension())
		}
	}
	if len(dense) != len(records) {
		return nil, apperrors.New(apperrors.ErrCodeEncoderUnavailable, "encoder returned wrong batch size")
	}

	entries := make([]milvus.Entry, len(records))
	for n, rec := range records {
		entry := milvus.Entry{ID: rec.ID, Dense: dense[n]}
		if s.sparse != nil {
			indices, values, err := s.sparse.EncodeQuery(corpus[n])
			if err == nil {
				entry.Sparse = &matching.SparseVector{Indices: indices, Values: values}
			}
		}
		entries[n] = entry
	}
	return entries, nil
}

// UpsertRecord writes one record to the catalog and refreshes its index
// entry.  The full rebuild path owns vocabulary refits; single upserts
// reuse the current vocabulary.
func (s *Service) UpsertRecord(ctx context.Context, rec *catalog.Record) error {
	id, err := s.catalog.Upsert(ctx, rec)
	if err != nil {
		s.metrics.ObserveCatalogEvent("upsert", "error")
		return err
	}
	rec.ID = id

	entries, err := s.encodeEntries(ctx, []*catalog.Record{rec}, []string{rec.SearchText()})
	if err != nil {
		s.metrics.ObserveCatalogEvent("upsert", "error")
		return err
	}
	if err := s.index.UpsertBatch(ctx, entries); err != nil {
		s.metrics.ObserveCatalogEvent("upsert", "error")
		return err
	}

	s.metrics.ObserveCatalogEvent("upsert", "ok")
	s.logger.Info("Catalog record synced",
		logging.Int64("id", id),
		logging.String("brand_name", rec.BrandName))
	return nil
}

// DeleteRecord removes a record from the catalog and the index.
func (s *Service) DeleteRecord(ctx context.Context, id int64) error {
	if err := s.catalog.Delete(ctx, id); err != nil {
		s.metrics.ObserveCatalogEvent("delete", "error")
		return err
	}
	if err := s.index.Delete(ctx, []int64{id}); err != nil {
		s.metrics.ObserveCatalogEvent("delete", "error")
		return err
	}
	s.metrics.ObserveCatalogEvent("delete", "ok")
	s.logger.Info("Catalog record removed", logging.Int64("id", id))
	return nil
}

// ImportDumpObject fetches a bulk dump from object storage, upserts every
// record, and rebuilds the index so new records become retrievable.
func (s *Service) ImportDumpObject(ctx context.Context, objectName string) error {
	if s.dumps == nil {
		return apperrors.New(apperrors.ErrCodeServiceUnavailable, "no dump store configured")
	}

	data, err := s.dumps.Fetch(ctx, objectName)
	if err != nil {
		s.metrics.ObserveCatalogEvent("dump", "error")
		return err
	}
	records, err := ParseDump(data)
	if err != nil {
		s.metrics.ObserveCatalogEvent("dump", "invalid")
		return err
	}

	for _, rec := range records {
		if _, err := s.catalog.Upsert(ctx, rec); err != nil {
			s.metrics.ObserveCatalogEvent("dump", "error")
			return err
		}
	}
	s.logger.Info("Catalog dump imported",
		logging.String("object", objectName),
		logging.Int("records", len(records)))

	if err := s.RebuildIndex(ctx); err != nil {
		s.metrics.ObserveCatalogEvent("dump", "error")
		return err
	}
	s.metrics.ObserveCatalogEvent("dump", "ok")
	return nil
}

// RecordMapping persists one confirmed prescriber mapping.
func (s *Service) RecordMapping(ctx context.Context, prescriberID string, medicineID int64) error {
	if err := s.history.RecordMapping(ctx, prescriberID, medicineID); err != nil {
		s.metrics.ObserveCatalogEvent("mapping", "error")
		return err
	}
	s.metrics.ObserveCatalogEvent("mapping", "ok")
	s.logger.Debug("Prescriber mapping recorded",
		logging.String("prescriber_id", prescriberID),
		logging.Int64("medicine_id", medicineID))
	return nil
}
