package encoder

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/turtacn/RxMatch-Intelligence/internal/config"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// DenseEncoder is the shared, lazily-initialised sentence encoder.  The
// first Encode call attempts to build the remote client exactly once; if
// that fails, the encoder enters a permanent unavailable state and every
// later call returns an ENCODER_UNAVAILABLE error immediately, without
// re-attempting the connection.  Callers degrade to DeterministicVector on
// that error.
//
// Safe for concurrent use.
type DenseEncoder struct {
	cfg    config.EncoderConfig
	logger logging.Logger

	once     sync.Once
	embedder embeddings.Embedder
	initErr  error
}

// NewDenseEncoder returns an uninitialised encoder; no connection is made
// until the first Encode call.
func NewDenseEncoder(cfg config.EncoderConfig, logger logging.Logger) *DenseEncoder {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DenseEncoder{cfg: cfg, logger: logger}
}

func (e *DenseEncoder) init() {
	if e.cfg.ModelEndpoint == "" {
		e.initErr = apperrors.New(apperrors.ErrCodeEncoderUnavailable, "no encoder endpoint configured")
		return
	}

	// "none" keeps local OpenAI-compatible embedding servers happy when no
	// real token is configured.
	token := e.cfg.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(e.cfg.ModelEndpoint),
		openai.WithToken(token),
		openai.WithEmbeddingModel(e.cfg.ModelName),
	)
	if err != nil {
		e.initErr = apperrors.Wrap(err, apperrors.ErrCodeEncoderUnavailable, "failed to build embedding client")
		return
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		e.initErr = apperrors.Wrap(err, apperrors.ErrCodeEncoderUnavailable, "failed to build embedder")
		return
	}

	e.embedder = embedder
	e.logger.Info("dense encoder initialised",
		logging.String("model", e.cfg.ModelName),
		logging.String("endpoint", e.cfg.ModelEndpoint))
}

// Encode embeds a single text.  Returns an unavailability error when the
// encoder never initialised; the timeout from configuration bounds the
// remote call.
func (e *DenseEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	e.once.Do(e.init)
	if e.initErr != nil {
		return nil, e.initErr
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.EncodeTimeout)
	defer cancel()

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeEncoderUnavailable, "embedding request failed")
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeEncoderUnavailable, "embedder returned empty vector")
	}
	return vectors[0], nil
}

// EncodeBatch embeds several texts in one request.  Used by the catalog
// sync worker when rebuilding the vector index.
func (e *DenseEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.once.Do(e.init)
	if e.initErr != nil {
		return nil, e.initErr
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.EncodeTimeout)
	defer cancel()

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeEncoderUnavailable, "batch embedding request failed")
	}
	return vectors, nil
}

// ModelName returns the configured model identifier.
func (e *DenseEncoder) ModelName() string {
	return e.cfg.ModelName
}

// Dimension returns the configured embedding width.
func (e *DenseEncoder) Dimension() int {
	return e.cfg.Dimension
}
