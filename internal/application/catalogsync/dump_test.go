package catalogsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

func TestParseDumpJSONArray(t *testing.T) {
	records, err := ParseDump([]byte(`[
		{"brand_name": " Augmentin 625 Duo ", "generic_name": "Amoxicillin + Clavulanate", "official_strength": "625 mg", "form": "tablet", "combination_flag": true},
		{"brand_name": "Crocin Advance", "generic_name": "Paracetamol", "official_strength": "500 mg"}
	]`))

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Augmentin 625 Duo", records[0].BrandName)
	assert.True(t, records[0].CombinationFlag)
	assert.Empty(t, records[1].Form)
}

func TestParseDumpNDJSON(t *testing.T) {
	records, err := ParseDump([]byte(`
{"brand_name": "Dolo 650", "generic_name": "Paracetamol"}

{"brand_name": "Azee 500", "generic_name": "Azithromycin"}
`))

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Azee 500", records[1].BrandName)
}

func TestParseDumpRejectsEmptyInput(t *testing.T) {
	_, err := ParseDump([]byte("   \n  "))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCatalogDumpInvalid))
}

func TestParseDumpRejectsMalformedJSON(t *testing.T) {
	_, err := ParseDump([]byte(`[{"brand_name": `))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCatalogDumpInvalid))
}

func TestParseDumpRejectsRecordWithoutNames(t *testing.T) {
	_, err := ParseDump([]byte(`[{"brand_name": "Dolo 650"}]`))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCatalogDumpInvalid))
}

func TestParseDumpRejectsEmptyArray(t *testing.T) {
	_, err := ParseDump([]byte(`[]`))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCatalogDumpInvalid))
}
