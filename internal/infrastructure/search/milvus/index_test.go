package milvus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RxMatch-Intelligence/internal/config"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

func TestQueryUnconfiguredIndexIsUnavailable(t *testing.T) {
	idx := NewIndex(config.MilvusConfig{}, nil)

	_, err := idx.Query(context.Background(), []float32{0.1, 0.2}, nil)

	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeVectorIndexUnavailable))
}

func TestEnsureCollectionUnconfiguredIndexIsUnavailable(t *testing.T) {
	idx := NewIndex(config.MilvusConfig{}, nil)

	err := idx.EnsureCollection(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestCloseWithoutConnectionIsNoOp(t *testing.T) {
	idx := NewIndex(config.MilvusConfig{Addr: "localhost:19530"}, nil)
	assert.NoError(t, idx.Close())
}
