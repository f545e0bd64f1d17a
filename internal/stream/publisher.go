// Package stream publishes room lifecycle events to Kafka.
package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"wordrush/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Publisher sends room events to the event stream
type Publisher interface {
	Publish(ctx context.Context, event model.RoomEvent) error
	Close() error
}

// MessageWriter is the part of kafka.Writer the publisher uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaPublisher creates an asynchronous writer for topic. Events are keyed
// by room code so one room's events stay ordered within a partition.
func NewKafkaPublisher(brokers []string, topic string) Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn().Err(err).Int("messages", len(messages)).Msg("room event delivery failed")
			}
		},
	}
	return NewPublisher(w)
}

// NewPublisher wraps an existing writer
func NewPublisher(w MessageWriter) Publisher {
	return &kafkaPublisher{writer: w}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event model.RoomEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal room event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RoomCode),
		Value: value,
		Time:  event.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
