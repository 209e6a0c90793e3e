package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/turtacn/RxMatch-Intelligence/internal/domain/mention"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// Request is one extraction request: free prescription text, or a
// base64-encoded prescription image handled by the external vision
// extractor.
type Request struct {
	RawText     string `json:"raw_text,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

// ContentHash returns the cache key for the request payload: the SHA-256
// hex digest of the image when present, otherwise of the raw text.
func (r Request) ContentHash() string {
	payload := r.ImageBase64
	if payload == "" {
		payload = r.RawText
	}
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ImageExtractor is the external vision collaborator.  Unlike retrieval
// tiers, its failure propagates to the caller as a request-level error; the
// pipeline has no local substitute for reading an image.
type ImageExtractor interface {
	ExtractImage(ctx context.Context, imageBase64 string) ([]mention.Mention, error)
}

// Service produces ordered mentions from an extraction request.
type Service struct {
	images ImageExtractor
	logger logging.Logger
}

// NewService builds the extraction service.  images may be nil, in which
// case image requests fail with EXTRACTOR_NOT_SET.
func NewService(images ImageExtractor, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{images: images, logger: logger}
}

// Extract returns the mentions found in the request, in document order.
// appendLog receives human-readable notes about how extraction ran.
func (s *Service) Extract(ctx context.Context, req Request, appendLog func(string)) ([]mention.Mention, error) {
	switch {
	case req.ImageBase64 != "":
		return s.extractImage(ctx, req.ImageBase64, appendLog)
	case req.RawText != "":
		return s.extractText(req.RawText, appendLog)
	default:
		return nil, apperrors.New(apperrors.ErrCodeExtractionEmptyInput, "no raw_text or image_base64 provided")
	}
}

func (s *Service) extractImage(ctx context.Context, imageBase64 string, appendLog func(string)) ([]mention.Mention, error) {
	if s.images == nil {
		return nil, apperrors.New(apperrors.ErrCodeExtractorNotSet, "no image extractor configured")
	}

	mentions, err := s.images.ExtractImage(ctx, imageBase64)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExtractionFailed, "image extraction failed")
	}
	if len(mentions) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeExtractionFailed, "image extraction returned no medicine data")
	}

	appendLog(fmt.Sprintf("Image extracted via vision collaborator: %d medicine %s detected",
		len(mentions), pluralEntry(len(mentions))))
	return mentions, nil
}

func (s *Service) extractText(rawText string, appendLog func(string)) ([]mention.Mention, error) {
	chunks := SplitRawText(rawText)
	if len(chunks) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeExtractionEmptyInput, "no medicine text could be parsed from raw_text")
	}

	appendLog(fmt.Sprintf("Raw text parsed into %d medicine %s", len(chunks), pluralEntry(len(chunks))))

	mentions := make([]mention.Mention, 0, len(chunks))
	for _, chunk := range chunks {
		mentions = append(mentions, ParseMention(chunk))
	}
	return mentions, nil
}

func pluralEntry(n int) string {
	if n == 1 {
		return "entry"
	}
	return "entries"
}
