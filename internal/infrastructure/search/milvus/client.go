// Package milvus adapts the Milvus vector database to the retrieval
// pipeline's VectorIndex port and to the ingestion worker's index-rebuild
// needs.  An unconfigured or unreachable index is reported through
// unavailability errors so retrieval degrades instead of failing.
package milvus

import (
	"context"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"

	"github.com/turtacn/RxMatch-Intelligence/internal/config"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// clientFactory allows test code to substitute the SDK dial function.
var clientFactory = client.NewClient

// connection lazily dials Milvus once and caches the handle.  A failed dial
// is retried on the next call; a missing address is a permanent
// unavailability.
type connection struct {
	cfg    config.MilvusConfig
	logger logging.Logger

	mu   sync.Mutex
	conn client.Client
}

func newConnection(cfg config.MilvusConfig, logger logging.Logger) *connection {
	return &connection{cfg: cfg, logger: logger}
}

func (c *connection) get(ctx context.Context) (client.Client, error) {
	if c.cfg.Addr == "" {
		return nil, apperrors.New(apperrors.ErrCodeVectorIndexUnavailable, "vector index not configured")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn, nil
	}

	conn, err := clientFactory(ctx, client.Config{
		Address: c.cfg.Addr,
		DBName:  c.cfg.DBName,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeVectorIndexUnavailable, "failed to connect to vector index")
	}

	c.conn = conn
	c.logger.Info("connected to milvus",
		logging.String("addr", c.cfg.Addr),
		logging.String("collection", c.cfg.Collection))
	return conn, nil
}

func (c *connection) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
