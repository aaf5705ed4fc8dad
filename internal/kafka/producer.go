package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"ms-events-web/internal/logger"
	"ms-events-web/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer messageWriter
	logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.Hash{},
	})
	return &Producer{Writer: writer, logger: log}
}

// PublishClickthrough streams a ticket hand-off to Kafka, keyed by event id.
func (p *Producer) PublishClickthrough(ctx context.Context, click models.Clickthrough) error {
	msgBytes, err := json.Marshal(click)
	if err != nil {
		return fmt.Errorf("encode clickthrough: %w", err)
	}

	p.logger.LogKafka("publish", "clickthrough", fmt.Sprintf("event=%s host=%s", click.EventID, click.TicketHost))

	if err := p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(click.EventID),
		Value: msgBytes,
	}); err != nil {
		return fmt.Errorf("publish clickthrough: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
