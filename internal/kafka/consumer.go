package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-events-web/internal/logger"
	"ms-events-web/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader  messageReader
	logger  *logger.Logger
	backoff time.Duration
}

// NewConsumer creates a Kafka consumer for the given topic and group.
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log, backoff: time.Second}
}

// Start reads catalog updates until ctx is cancelled. Undecodable messages are skipped.
func (c *Consumer) Start(ctx context.Context, handler func(context.Context, models.CatalogUpdate)) {
	c.logger.LogKafka("consume", "catalog", "Kafka consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.LogKafka("consume", "catalog", "Kafka consumer stopped")
				return
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			continue
		}

		var update models.CatalogUpdate
		if len(msg.Value) > 0 {
			if err := json.Unmarshal(msg.Value, &update); err != nil {
				c.logger.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal catalog update: %v", err))
				continue
			}
		}

		c.logger.LogKafka("receive", msg.Topic, fmt.Sprintf("Catalog updated (reason=%q)", update.Reason))
		handler(ctx, update)
	}
}

// Close shuts down the Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
