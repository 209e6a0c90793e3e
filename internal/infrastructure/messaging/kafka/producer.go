package kafka

import (
	"context"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/turtacn/RxMatch-Intelligence/internal/config"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer publishes catalog-change and mapping-confirmation events.
// Messages are keyed by catalog id (or prescriber id for mapping events) so
// changes to the same record stay ordered within a partition.
type Producer struct {
	writer writerInterface
	logger logging.Logger
}

// NewProducer builds a Producer over the configured brokers.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "kafka brokers required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	retries := cfg.ProducerRetries
	if retries <= 0 {
		retries = 3
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Balancer:     &kafkago.Hash{},
		MaxAttempts:  retries + 1,
		BatchSize:    batchSize,
		BatchTimeout: time.Second,
		RequiredAcks: kafkago.RequireAll,
	}
	return &Producer{writer: writer, logger: logger}, nil
}

// PublishCatalogEvent emits one catalog change onto TopicCatalogChanges.
func (p *Producer) PublishCatalogEvent(ctx context.Context, event CatalogEvent) error {
	payload, err := Encode(event)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode catalog event")
	}
	key := []byte(strconv.FormatInt(event.ID, 10))
	if event.Type == EventDumpAvailable {
		key = []byte(event.DumpObject)
	}

	msg := kafkago.Message{
		Topic: TopicCatalogChanges,
		Key:   key,
		Value: payload,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to publish catalog event")
	}

	p.logger.Debug("Catalog event published",
		logging.String("type", event.Type),
		logging.Int64("id", event.ID))
	return nil
}

// PublishMappingEvent emits one prescriber mapping confirmation onto
// TopicMappingConfirmed.
func (p *Producer) PublishMappingEvent(ctx context.Context, event MappingEvent) error {
	payload, err := Encode(event)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode mapping event")
	}

	msg := kafkago.Message{
		Topic: TopicMappingConfirmed,
		Key:   []byte(event.PrescriberID),
		Value: payload,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to publish mapping event")
	}

	p.logger.Debug("Mapping event published",
		logging.String("prescriber_id", event.PrescriberID),
		logging.Int64("medicine_id", event.MedicineID))
	return nil
}

// Close flushes and releases the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
