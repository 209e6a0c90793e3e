// Package handlers contains the gin HTTP handlers for the matching API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/RxMatch-Intelligence/internal/application/extraction"
	"github.com/turtacn/RxMatch-Intelligence/internal/application/matching"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// ResponseCache is the precomputed-response store.  Lookup failures read as
// misses; Store failures are logged, never surfaced.
type ResponseCache interface {
	Lookup(ctx context.Context, contentHash string) ([]byte, bool)
	Store(ctx context.Context, contentHash string, payload []byte) error
}

// CacheMetrics counts cache outcomes.  Nil disables counting.
type CacheMetrics interface {
	CacheHit()
	CacheMiss()
}

// MatchRequest is the API payload: free prescription text or a base64 image,
// plus the optional prescriber identity for history re-ranking.
type MatchRequest struct {
	RawText      string `json:"raw_text,omitempty"`
	ImageBase64  string `json:"image_base64,omitempty"`
	PrescriberID string `json:"prescriber_id,omitempty"`
}

// MatchHandler runs extraction and the matching pipeline behind the single
// cache intercept point.
type MatchHandler struct {
	extractor *extraction.Service
	pipeline  *matching.Pipeline
	cache     ResponseCache
	metrics   CacheMetrics
	logger    logging.Logger
}

// NewMatchHandler wires the handler.  cache and metrics may be nil.
func NewMatchHandler(extractor *extraction.Service, pipeline *matching.Pipeline, cache ResponseCache, metrics CacheMetrics, logger logging.Logger) *MatchHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &MatchHandler{
		extractor: extractor,
		pipeline:  pipeline,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// Match handles POST /api/v1/match.
func (h *MatchHandler) Match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAppError(c, apperrors.InvalidParam("request body is not valid JSON").WithCause(err))
		return
	}

	ctx := c.Request.Context()
	hash := extraction.Request{RawText: req.RawText, ImageBase64: req.ImageBase64}.ContentHash()

	// The sole cache intercept point: a hit returns the full precomputed
	// response, bypassing extraction, retrieval, and guardrails.
	if h.cache != nil && (req.RawText != "" || req.ImageBase64 != "") {
		if payload, ok := h.cache.Lookup(ctx, hash); ok {
			var cached matching.BatchResult
			if err := json.Unmarshal(payload, &cached); err == nil {
				h.countHit()
				annotateCacheHit(&cached)
				c.JSON(http.StatusOK, cached)
				return
			}
			h.logger.Warn("cached response undecodable, falling through", logging.String("hash", hash))
		}
	}
	h.countMiss()

	var extractionLog []string
	mentions, err := h.extractor.Extract(ctx, extraction.Request{
		RawText:     req.RawText,
		ImageBase64: req.ImageBase64,
	}, func(line string) { extractionLog = append(extractionLog, line) })
	if err != nil {
		writeAppError(c, err)
		return
	}

	result, err := h.pipeline.Process(ctx, matching.Request{
		Mentions:     mentions,
		PrescriberID: req.PrescriberID,
	})
	if err != nil {
		writeAppError(c, err)
		return
	}

	// Extraction ran before the pipeline, so its notes lead the trail.
	result.Trail = append(extractionLog, result.Trail...)

	if h.cache != nil {
		if payload, err := json.Marshal(result); err == nil {
			if err := h.cache.Store(ctx, hash, payload); err != nil {
				h.logger.Warn("response cache store failed", logging.Err(err))
			}
		}
	}

	c.JSON(http.StatusOK, result)
}

func annotateCacheHit(result *matching.BatchResult) {
	const marker = "Workflow short-circuited by cache hit"
	result.Trail = append(result.Trail, marker)
	for n := range result.Results {
		result.Results[n].Trail = append(result.Results[n].Trail, marker)
	}
}

func (h *MatchHandler) countHit() {
	if h.metrics != nil {
		h.metrics.CacheHit()
	}
}

func (h *MatchHandler) countMiss() {
	if h.metrics != nil {
		h.metrics.CacheMiss()
	}
}
