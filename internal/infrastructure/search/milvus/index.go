package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/turtacn/RxMatch-Intelligence/internal/application/matching"
	"github.com/turtacn/RxMatch-Intelligence/internal/config"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

const (
	fieldID     = "id"
	fieldDense  = "dense_vector"
	fieldSparse = "sparse_vector"
)

// Index is the Milvus-backed implementation of the retrieval pipeline's
// VectorIndex port.  Records are indexed under their catalog id so a hit can
// be re-resolved against the relational ground truth.
type Index struct {
	cfg    config.MilvusConfig
	conn   *connection
	logger logging.Logger
}

// NewIndex builds an Index; no connection is made until first use.
func NewIndex(cfg config.MilvusConfig, logger logging.Logger) *Index {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Index{cfg: cfg, conn: newConnection(cfg, logger), logger: logger}
}

// Close releases the underlying connection.
func (i *Index) Close() error {
	return i.conn.close()
}

// Query runs a top-1 similarity search.  Both vectors are used in a hybrid
// query when a sparse vector is supplied; dense-only otherwise.  Returns
// (nil, nil) when the index holds no candidate.
func (i *Index) Query(ctx context.Context, dense []float32, sparse *matching.SparseVector) (*matching.IndexHit, error) {
	conn, err := i.conn.get(ctx)
	if err != nil {
		return nil, err
	}

	var results []client.SearchResult
	if sparse != nil {
		results, err = i.hybridSearch(ctx, conn, dense, sparse)
	} else {
		results, err = i.denseSearch(ctx, conn, dense)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeVectorQueryFailed, "vector query failed")
	}

	for _, result := range results {
		if result.ResultCount == 0 {
			continue
		}
		ids, ok := result.IDs.(*entity.ColumnInt64)
		if !ok || len(ids.Data()) == 0 {
			continue
		}
		return &matching.IndexHit{
			ID:    ids.Data()[0],
			Score: float64(result.Scores[0]),
		}, nil
	}
	return nil, nil
}

func (i *Index) denseSearch(ctx context.Context, conn client.Client, dense []float32) ([]client.SearchResult, error) {
	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, err
	}
	return conn.Search(ctx, i.cfg.Collection, i.partitions(), "", []string{fieldID},
		[]entity.Vector{entity.FloatVector(dense)}, fieldDense, entity.COSINE, 1, sp)
}

func (i *Index) hybridSearch(ctx context.Context, conn client.Client, dense []float32, sparse *matching.SparseVector) ([]client.SearchResult, error) {
	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, err
	}
	sparseVec, err := entity.NewSliceSparseEmbedding(sparse.Indices, sparse.Values)
	if err != nil {
		return nil, err
	}

	subRequests := []*client.ANNSearchRequest{
		client.NewANNSearchRequest(fieldDense, entity.COSINE, "", []entity.Vector{entity.FloatVector(dense)}, sp, 1),
		client.NewANNSearchRequest(fieldSparse, entity.IP, "", []entity.Vector{sparseVec}, sp, 1),
	}
	return conn.HybridSearch(ctx, i.cfg.Collection, i.partitions(), 1, []string{fieldID},
		client.NewRRFReranker(), subRequests)
}

func (i *Index) partitions() []string {
	if i.cfg.Namespace == "" {
		return nil
	}
	return []string{i.cfg.Namespace}
}

// EnsureCollection creates the collection, its indexes, and the configured
// partition when absent, then loads the collection for search.  Called by
// the ingestion worker at startup.
func (i *Index) EnsureCollection(ctx context.Context) error {
	conn, err := i.conn.get(ctx)
	if err != nil {
		return err
	}

	exists, err := conn.HasCollection(ctx, i.cfg.Collection)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeVectorQueryFailed, "collection probe failed")
	}

	if !exists {
		schema := entity.NewSchema().
			WithName(i.cfg.Collection).
			WithDescription("medicine catalog retrieval index").
			WithField(entity.NewField().WithName(fieldID).WithDataType(entity.FieldTypeInt64).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(fieldDense).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(i.cfg.EmbeddingDim))).
			WithField(entity.NewField().WithName(fieldSparse).WithDataType(entity.FieldTypeSparseVector))
		if err := conn.CreateCollection(ctx, schema, 1); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeVectorQueryFailed, "collection creation failed")
		}

		denseIdx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeVectorQueryFailed, "dense index construction failed")
		}
		if err := conn.CreateIndex(ctx, i.cfg.Collection, fieldDense, denseIdx, false); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeVectorQueryFailed, "dense index creation failed")
		}
		sparseIdx, err := entity.NewIndexSparseInverted(entity.IP, 0)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeVectorQueryFailed, "sparse index construction failed")
		}
		if err := conn.CreateIndex(ctx, i.cfg.Collection, fieldSparse, sparseIdx, false); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeVectorQueryFailed, "sparse index creation failed")
		}
	}

	if i.cfg.Namespace != "" {
		hasPartition, err := conn.HasPartition(ctx, i.cfg.Collection, i.cfg.Namespace)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeVectorQueryFailed, "partition probe failed")
		}
		if !hasPartition {
			if err := conn.CreatePartition(ctx, i.cfg.Collection, i.cfg.Namespace); err != nil {
				return apperrors.Wrap(err, apperrors.ErrCodeVectorQueryFailed, "partition creation failed")
			}
		}
	}

	if err := conn.LoadCollection(ctx, i.cfg.Collection, false); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeVectorQueryFailed, "collection load failed")
	}
	return nil
}

// Entry is one catalog record's index payload.
type Entry struct {
	ID     int64
	Dense  []float32
	Sparse *matching.SparseVector
}

// UpsertBatch writes a batch of entries.  Entries without a sparse vector
// get an empty sparse embedding so the column stays aligned.
func (i *Index) UpsertBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	conn, err := i.conn.get(ctx)
	if err != nil {
		return err
	}

	ids := make([]int64, len(entries))
	dense := make([][]float32, len(entries))
	sparse := make([]entity.SparseEmbedding, len(entries))
	for n, e := range entries {
		ids[n] = e.ID
		dense[n] = e.Dense
		var indices []uint32
		var values []float32
		if e.Sparse != nil {
			indices, values = e.Sparse.Indices, e.Sparse.Values
		}
		emb, err := entity.NewSliceSparseEmbedding(indices, values)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeVectorQueryFailed,
				fmt.Sprintf("sparse embedding for id %d invalid", e.ID))
		}
		sparse[n] = emb
	}

	_, err = conn.Upsert(ctx, i.cfg.Collection, i.partitionName(),
		entity.NewColumnInt64(fieldID, ids),
		entity.NewColumnFloatVector(fieldDense, i.cfg.EmbeddingDim, dense),
		entity.NewColumnSparseVectors(fieldSparse, sparse))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeVectorQueryFailed, "index upsert failed")
	}
	return nil
}

// Delete removes entries by catalog id.
func (i *Index) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	conn, err := i.conn.get(ctx)
	if err != nil {
		return err
	}
	if err := conn.DeleteByPks(ctx, i.cfg.Collection, i.partitionName(),
		entity.NewColumnInt64(fieldID, ids)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeVectorQueryFailed, "index delete failed")
	}
	return nil
}

func (i *Index) partitionName() string {
	return i.cfg.Namespace
}
