package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/config"
	"github.com/temcen/bookrec/pkg/models"
)

const (
	dlqSuffix      = "-dlq"
	maxRetries     = 3
	publishTimeout = 10 * time.Second
)

// RatingMessage is the envelope written to the ratings topic.
type RatingMessage struct {
	Event      models.RatingEvent `json:"event"`
	RetryCount int                `json:"retry_count"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// MessageBus publishes rating events and feeds them to a consumer with retry
// and a dead-letter topic.
type MessageBus struct {
	writer    messageWriter
	reader    messageReader
	dlqWriter messageWriter
	topic     string
	baseDelay time.Duration
	logger    *logrus.Logger
}

func NewMessageBus(cfg *config.Config, logger *logrus.Logger) (*MessageBus, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, errors.New("no Kafka brokers configured")
	}
	topic := cfg.Kafka.Topics.Ratings

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // Key by user so one user's ratings stay ordered
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          topic,
		GroupID:        cfg.Kafka.GroupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        topic + dlqSuffix,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return newMessageBus(writer, reader, dlqWriter, topic, logger), nil
}

func newMessageBus(writer messageWriter, reader messageReader, dlqWriter messageWriter, topic string, logger *logrus.Logger) *MessageBus {
	return &MessageBus{
		writer:    writer,
		reader:    reader,
		dlqWriter: dlqWriter,
		topic:     topic,
		baseDelay: time.Second,
		logger:    logger,
	}
}

func (mb *MessageBus) PublishRating(ctx context.Context, event models.RatingEvent) error {
	messageBytes, err := json.Marshal(RatingMessage{Event: event})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	kafkaMessage := kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: messageBytes,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID.String())},
			{Key: "book_id", Value: []byte(event.BookID.String())},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := mb.writer.WriteMessages(ctx, kafkaMessage); err != nil {
		mb.logger.WithError(err).WithField("event_id", event.EventID).Error("Failed to publish rating event")
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	mb.logger.WithFields(logrus.Fields{
		"event_id": event.EventID,
		"user_id":  event.UserID,
		"topic":    mb.topic,
	}).Debug("Rating event published")

	return nil
}

// ConsumeRatings hands every rating event to handler until ctx is cancelled.
// Events that still fail after the retries go to the dead-letter topic.
func (mb *MessageBus) ConsumeRatings(ctx context.Context, handler func(context.Context, models.RatingEvent) error) error {
	for {
		message, err := mb.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return err
			}
			mb.logger.WithError(err).Error("Failed to read message from Kafka")
			continue
		}

		var ratingMessage RatingMessage
		if err := json.Unmarshal(message.Value, &ratingMessage); err != nil {
			mb.logger.WithError(err).Error("Failed to unmarshal Kafka message")
			if dlqErr := mb.sendToDLQ(ctx, message.Key, message.Value, err); dlqErr != nil {
				mb.logger.WithError(dlqErr).Error("Failed to send message to DLQ")
			}
			continue
		}

		if err := mb.processWithRetry(ctx, &ratingMessage, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			mb.logger.WithError(err).WithField("event_id", ratingMessage.Event.EventID).Error("Failed to process message after retries")

			if dlqErr := mb.sendToDLQ(ctx, message.Key, ratingMessage, err); dlqErr != nil {
				mb.logger.WithError(dlqErr).Error("Failed to send message to DLQ")
			}
		}
	}
}

func (mb *MessageBus) processWithRetry(ctx context.Context, message *RatingMessage, handler func(context.Context, models.RatingEvent) error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			delay := mb.baseDelay * time.Duration(1<<uint(attempt-1))
			mb.logger.WithFields(logrus.Fields{
				"event_id": message.Event.EventID,
				"attempt":  attempt,
				"delay":    delay,
			}).Info("Retrying message processing")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		message.RetryCount = attempt
		if err := handler(ctx, message.Event); err != nil {
			mb.logger.WithError(err).WithFields(logrus.Fields{
				"event_id": message.Event.EventID,
				"attempt":  attempt,
			}).Warn("Message processing failed")

			if attempt == maxRetries {
				return fmt.Errorf("max retries exceeded: %w", err)
			}
			continue
		}

		return nil
	}

	return fmt.Errorf("unexpected retry loop exit")
}

func (mb *MessageBus) sendToDLQ(ctx context.Context, key []byte, original interface{}, originalError error) error {
	if raw, ok := original.([]byte); ok {
		original = string(raw)
	}
	dlqMessage := map[string]interface{}{
		"original_message": original,
		"error":            originalError.Error(),
		"dlq_timestamp":    time.Now(),
	}

	dlqBytes, err := json.Marshal(dlqMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ message: %w", err)
	}

	kafkaMessage := kafka.Message{
		Key:   key,
		Value: dlqBytes,
		Headers: []kafka.Header{
			{Key: "original_topic", Value: []byte(mb.topic)},
			{Key: "error", Value: []byte(originalError.Error())},
		},
	}

	if err := mb.dlqWriter.WriteMessages(ctx, kafkaMessage); err != nil {
		return fmt.Errorf("failed to write message to DLQ: %w", err)
	}

	mb.logger.WithFields(logrus.Fields{
		"key":   string(key),
		"error": originalError.Error(),
	}).Warn("Message sent to DLQ")

	return nil
}

func (mb *MessageBus) Close() error {
	var errors []error

	if err := mb.writer.Close(); err != nil {
		errors = append(errors, fmt.Errorf("failed to close producer: %w", err))
	}

	if err := mb.reader.Close(); err != nil {
		errors = append(errors, fmt.Errorf("failed to close consumer: %w", err))
	}

	if err := mb.dlqWriter.Close(); err != nil {
		errors = append(errors, fmt.Errorf("failed to close DLQ writer: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("errors closing message bus: %v", errors)
	}

	return nil
}
