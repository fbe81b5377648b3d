package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"reflectio/internal/events"

	"github.com/segmentio/kafka-go"
)

type Config struct {
	Brokers []string
	Topic   string
}

// Producer publishes domain events to one topic, keyed by Event.Key.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &Producer{writer: w, topic: cfg.Topic}, nil
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *Producer) Publish(ctx context.Context, e events.Event) error {
	msg, err := Message(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Message encodes an event the way Publish sends it.
func Message(e events.Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: encode %s: %w", e.Type, err)
	}
	return kafka.Message{
		Key:   []byte(e.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}, nil
}
