package encoder

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RxMatch-Intelligence/internal/config"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

func TestDeterministicVectorIsReproducible(t *testing.T) {
	a := DeterministicVector("augmentin 625 tablet", DefaultDimension)
	b := DeterministicVector("augmentin 625 tablet", DefaultDimension)

	require.Len(t, a, DefaultDimension)
	assert.Equal(t, a, b)
}

func TestDeterministicVectorDiffersAcrossTexts(t *testing.T) {
	a := DeterministicVector("augmentin 625 tablet", DefaultDimension)
	b := DeterministicVector("paracetamol 500", DefaultDimension)
	assert.NotEqual(t, a, b)
}

func TestDeterministicVectorIsUnitLength(t *testing.T) {
	vec := DeterministicVector("crocin advance", 64)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-3)
}

func TestDenseEncoderUnavailableWithoutEndpoint(t *testing.T) {
	enc := NewDenseEncoder(config.EncoderConfig{
		ModelName:     "all-MiniLM-L6-v2",
		Dimension:     DefaultDimension,
		EncodeTimeout: time.Second,
	}, nil)

	_, err := enc.Encode(context.Background(), "augmentin")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEncoderUnavailable))

	// The unavailable state is permanent and cheap to recheck.
	_, err = enc.Encode(context.Background(), "augmentin")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEncoderUnavailable))
}

func TestTermFrequencyEncoderUnfit(t *testing.T) {
	enc := NewTermFrequencyEncoder()
	_, _, err := enc.EncodeQuery("augmentin tablet")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEncoderUnavailable))
}

func TestTermFrequencyEncoderEncodesKnownTerms(t *testing.T) {
	enc := NewTermFrequencyEncoder()
	enc.Fit([]string{
		"Augmentin 625 Duo amoxicillin clavulanate tablet",
		"Amoxiclav 375 amoxicillin clavulanate tablet",
		"Crocin Advance paracetamol tablet",
	})

	indices, values, err := enc.EncodeQuery("augmentin tablet")
	require.NoError(t, err)
	require.Len(t, indices, 2)
	require.Len(t, values, 2)

	// Indices come back sorted ascending; "augmentin" was seen first during
	// Fit so it holds the lower index.
	assert.Less(t, indices[0], indices[1])
	for _, v := range values {
		assert.Greater(t, v, float32(0))
	}

	// "tablet" appears in every document, so it weighs less than the rarer
	// brand term.
	assert.Greater(t, values[0], values[1])
}

func TestTermFrequencyEncoderRejectsOutOfVocabularyQuery(t *testing.T) {
	enc := NewTermFrequencyEncoder()
	enc.Fit([]string{"Augmentin 625 Duo tablet"})

	_, _, err := enc.EncodeQuery("zzz unknownbrand")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEncoderUnavailable))
}
