package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormat(t *testing.T) {
	err := New(ErrCodeCatalogRecordNotFound, "catalog record not found")
	assert.Equal(t, "[CAT_001] catalog record not found", err.Error())

	withDetail := err.WithDetail("id=42")
	assert.Equal(t, "[CAT_001] catalog record not found: id=42", withDetail.Error())
	// WithDetail must not mutate the original.
	assert.Empty(t, err.Detail)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "query failed"))
}

func TestWrapPreservesChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeDatabaseError, "failed to query catalog")

	require.NotNil(t, err)
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsCode(err, ErrCodeDatabaseError))
	assert.False(t, IsCode(err, ErrCodeCacheError))
}

func TestIsCodeTraversesWrappedChain(t *testing.T) {
	inner := New(ErrCodeVectorIndexUnavailable, "index not configured")
	outer := fmt.Errorf("retrieval tier failed: %w", inner)

	assert.True(t, IsCode(outer, ErrCodeVectorIndexUnavailable))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, ErrCodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeBadRequest, GetCode(InvalidParam("missing input")))
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, IsUnavailable(Unavailable("encoder absent")))
	assert.False(t, IsUnavailable(Internal("boom")))
	assert.False(t, IsUnavailable(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("nope")))
	assert.True(t, IsNotFound(New(ErrCodeCatalogRecordNotFound, "stale id")))
	assert.False(t, IsNotFound(InvalidParam("bad")))
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, 404, HTTPStatusForCode(ErrCodeCatalogRecordNotFound))
	assert.Equal(t, 503, HTTPStatusForCode(ErrCodeVectorIndexUnavailable))
	assert.Equal(t, 500, HTTPStatusForCode(ErrorCode("NOPE_001")))
	assert.True(t, IsClientError(ErrCodeBadRequest))
	assert.False(t, IsClientError(ErrCodeInternal))
}
