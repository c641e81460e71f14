// Package kafka implements events.Publisher on top of a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/warp/hrchain/events"
)

var _ events.Publisher = (*Publisher)(nil)

// Publisher writes lifecycle events to the lifecycle topic, keyed by
// participant id so per-participant ordering is preserved within a partition.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given brokers.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    events.LifecycleTopic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, e events.LifecycleEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.ParticipantID),
		Value: data,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
