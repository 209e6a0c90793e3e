package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/turtacn/RxMatch-Intelligence/internal/config"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// Handlers receives decoded events from the consumer loop.  A handler error
// is logged and the message retried a bounded number of times before being
// skipped; the loop never stalls on a poison message.
type Handlers struct {
	OnCatalogEvent func(ctx context.Context, event CatalogEvent) error
	OnMappingEvent func(ctx context.Context, event MappingEvent) error
}

// readerInterface abstracts kafka.Reader for testing.
type readerInterface interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer drives the catalog sync worker's event loop.  It subscribes to
// both event topics under a single consumer group and commits offsets only
// after the handler has run.
type Consumer struct {
	reader   readerInterface
	handlers Handlers
	logger   logging.Logger

	maxRetries int
	backoff    time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer builds a Consumer over the configured brokers.
func NewConsumer(cfg config.KafkaConfig, handlers Handlers, logger logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.GroupID == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "kafka group_id required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	startOffset := kafkago.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafkago.LastOffset
	}
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: []string{TopicCatalogChanges, TopicMappingConfirmed},
		StartOffset: startOffset,
	})

	return &Consumer{
		reader:     reader,
		handlers:   handlers,
		logger:     logger,
		maxRetries: 3,
		backoff:    time.Second,
	}, nil
}

// Start launches the consume loop.  Returns immediately; Close stops the
// loop and waits for it to drain.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.consumeLoop(ctx)
	c.logger.Info("Kafka consumer started",
		logging.String("topics", TopicCatalogChanges+","+TopicMappingConfirmed))
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Fetch failed", logging.Err(err))
			time.Sleep(time.Second)
			continue
		}

		if err := c.dispatchWithRetry(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Event skipped after retries",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("Offset commit failed", logging.Err(err))
		}
	}
}

func (c *Consumer) dispatchWithRetry(ctx context.Context, msg kafkago.Message) error {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
		if err = c.dispatch(ctx, msg); err == nil {
			return nil
		}
		// Malformed payloads never become valid; drop without retrying.
		if apperrors.IsCode(err, apperrors.ErrCodeSerialization) {
			return err
		}
	}
	return err
}

func (c *Consumer) dispatch(ctx context.Context, msg kafkago.Message) error {
	switch msg.Topic {
	case TopicCatalogChanges:
		var event CatalogEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "malformed catalog event")
		}
		if c.handlers.OnCatalogEvent == nil {
			return nil
		}
		return c.handlers.OnCatalogEvent(ctx, event)
	case TopicMappingConfirmed:
		var event MappingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "malformed mapping event")
		}
		if c.handlers.OnMappingEvent == nil {
			return nil
		}
		return c.handlers.OnMappingEvent(ctx, event)
	default:
		c.logger.Warn("Message on unexpected topic", logging.String("topic", msg.Topic))
		return nil
	}
}

// Close stops the consume loop and releases the reader.
func (c *Consumer) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.reader.Close()
}
