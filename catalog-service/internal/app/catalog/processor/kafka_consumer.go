package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/catalog-service/internal/app/catalog/service"
	"tgshop/pkg/logger"
	"tgshop/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const serviceName = "catalog"

var errMalformedEvent = errors.New("malformed shop event")

// messageReader - часть kafka.Reader, которой пользуется consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer обрабатывает события ботов из топика shop_events
type KafkaConsumer struct {
	reader   messageReader
	handler  service.ShopEventHandler
	topic    string
	groupID  string
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewKafkaConsumer создает новый Kafka consumer
func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	handler service.ShopEventHandler,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: minBytes,
		MaxBytes: maxBytes,
		// Пропущенное событие активации догонит периодическая сверка
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return newKafkaConsumer(reader, topic, groupID, handler)
}

func newKafkaConsumer(reader messageReader, topic, groupID string, handler service.ShopEventHandler) *KafkaConsumer {
	return &KafkaConsumer{
		reader:   reader,
		handler:  handler,
		topic:    topic,
		groupID:  groupID,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group", c.groupID).Msg("Starting Kafka consumer...")
	go c.consume(ctx)
}

// Stop останавливает consumer
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer...")
	close(c.stopChan)
	<-c.doneChan
	if err := c.reader.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close Kafka reader")
	}
	logger.Info().Msg("Kafka consumer stopped")
}

// consume читает и обрабатывает сообщения из Kafka
func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		message, err := c.reader.FetchMessage(readCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}

			logger.Error().Err(err).Str("topic", c.topic).Msg("Error fetching message")
			metrics.RecordKafkaError(serviceName, c.topic, "fetch")
			select {
			case <-c.stopChan:
				return
			case <-time.After(time.Second):
			}
			continue
		}

		started := time.Now()
		if err := c.processMessage(ctx, message); err != nil {
			metrics.RecordKafkaError(serviceName, c.topic, "process")
			if !isPermanent(err) {
				// Не коммитим offset - сообщение будет обработано повторно
				logger.Error().Err(err).Int64("offset", message.Offset).Msg("Error processing message")
				continue
			}
			logger.Warn().Err(err).Int64("offset", message.Offset).Msg("Skipping shop event")
		} else {
			metrics.RecordKafkaMessageConsumed(serviceName, c.topic, c.groupID, time.Since(started))
		}

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			logger.Error().Err(err).Int64("offset", message.Offset).Msg("Error committing message")
			metrics.RecordKafkaError(serviceName, c.topic, "commit")
		}
	}
}

// processMessage обрабатывает одно сообщение из Kafka
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.ShopEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	if event.ShopID == 0 || event.OwnerUserID == 0 {
		return fmt.Errorf("%w: shop_id and owner_user_id are required", errMalformedEvent)
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Uint("shop_id", event.ShopID).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received shop event")

	if err := c.handler.HandleShopEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to handle shop event: %w", err)
	}
	return nil
}

// isPermanent - повтор сообщения не поможет, offset можно коммитить
func isPermanent(err error) bool {
	return errors.Is(err, errMalformedEvent) ||
		errors.Is(err, service.ErrUnknownShopEvent) ||
		errors.Is(err, service.ErrShopNotFound)
}
