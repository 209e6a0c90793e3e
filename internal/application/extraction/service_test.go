package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/mention"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

func TestParseMentionMultiWordBrand(t *testing.T) {
	m := ParseMention("Augmentin 625 Duo Tablet")

	assert.Equal(t, "Augmentin Duo", m.Brand)
	assert.Equal(t, "625", m.DosageVariant)
	assert.Equal(t, "tablet", m.Form)
	assert.Empty(t, m.Strength)
	assert.Equal(t, "Augmentin 625 Duo Tablet", m.RawInput)
}

func TestParseMentionStrengthAndFraction(t *testing.T) {
	m := ParseMention("Amoxiclav 500/125 tab 250mg/5ml")

	assert.Equal(t, "Amoxiclav", m.Brand)
	assert.Equal(t, "500/125", m.DosageVariant)
	assert.Equal(t, "tab", m.Form)
	assert.Equal(t, "250mg/5ml", m.Strength)
}

func TestParseMentionStripsPunctuation(t *testing.T) {
	m := ParseMention("Crocin, 650, tablet;")

	assert.Equal(t, "Crocin,", m.Brand)
	assert.Equal(t, "650", m.DosageVariant)
	assert.Equal(t, "tablet", m.Form)
}

func TestParseMentionNoBrandFallsBackToUnknown(t *testing.T) {
	m := ParseMention("500mg tablet")

	assert.Equal(t, "unknown", m.Brand)
	assert.Equal(t, "500mg", m.Strength)
}

func TestSplitRawTextNewlinesWin(t *testing.T) {
	chunks := SplitRawText("1. Augmentin 625 Duo\n2. Crocin Advance, 650")

	assert.Equal(t, []string{"Augmentin 625 Duo", "Crocin Advance, 650"}, chunks)
}

func TestSplitRawTextInlineSeparators(t *testing.T) {
	chunks := SplitRawText("Augmentin 625; Crocin 650 | Dolo 650")

	assert.Equal(t, []string{"Augmentin 625", "Crocin 650", "Dolo 650"}, chunks)
}

func TestSplitRawTextSingleEntryAndDuplicates(t *testing.T) {
	assert.Equal(t, []string{"Augmentin 625 Duo"}, SplitRawText("  Augmentin   625 Duo "))
	assert.Equal(t, []string{"Crocin"}, SplitRawText("Crocin, crocin"))
	assert.Nil(t, SplitRawText("   "))
}

func TestExtractTextRequest(t *testing.T) {
	svc := NewService(nil, nil)
	var logs []string

	mentions, err := svc.Extract(context.Background(), Request{RawText: "Augmentin 625 Tab\nCrocin 650"}, func(s string) { logs = append(logs, s) })
	require.NoError(t, err)
	require.Len(t, mentions, 2)

	assert.Equal(t, "Augmentin", mentions[0].Brand)
	assert.Equal(t, "Crocin", mentions[1].Brand)
	assert.Contains(t, logs, "Raw text parsed into 2 medicine entries")
}

func TestExtractEmptyRequest(t *testing.T) {
	svc := NewService(nil, nil)

	_, err := svc.Extract(context.Background(), Request{}, func(string) {})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeExtractionEmptyInput))
}

func TestExtractImageWithoutExtractor(t *testing.T) {
	svc := NewService(nil, nil)

	_, err := svc.Extract(context.Background(), Request{ImageBase64: "aGVsbG8="}, func(string) {})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeExtractorNotSet))
}

func TestExtractImageDelegates(t *testing.T) {
	svc := NewService(stubExtractor{mentions: []mention.Mention{{RawInput: "Augmentin 625", Brand: "Augmentin 625"}}}, nil)
	var logs []string

	mentions, err := svc.Extract(context.Background(), Request{ImageBase64: "aGVsbG8="}, func(s string) { logs = append(logs, s) })
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Contains(t, logs, "Image extracted via vision collaborator: 1 medicine entry detected")
}

func TestContentHashStableAndDistinct(t *testing.T) {
	a := Request{RawText: "Augmentin 625"}.ContentHash()
	b := Request{RawText: "Augmentin 625"}.ContentHash()
	c := Request{RawText: "Crocin 650"}.ContentHash()

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

type stubExtractor struct {
	mentions []mention.Mention
	err      error
}

func (s stubExtractor) ExtractImage(context.Context, string) ([]mention.Mention, error) {
	return s.mentions, s.err
}
