package kafka

import (
	"context"
	"encoding/json"
	"log"

	"studio-service/internal/models"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

// Start consumes booking events until the context is cancelled.
func (c *Consumer) Start(ctx context.Context, handler func(event models.BookingEvent)) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("kafka: error reading message: %v", err)
			continue
		}

		var event models.BookingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("kafka: failed to unmarshal booking event: %v", err)
			continue
		}

		handler(event)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
