package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
)

type Producer struct {
	sync sarama.SyncProducer
}

func NewProducer(brokers []string, cfg *sarama.Config) (*Producer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{sync: sync}, nil
}

func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	var hs []sarama.RecordHeader
	for k, v := range headers {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: hs,
	}
	_, _, err := p.sync.SendMessage(msg)
	return err
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}

// domainEvent is what the booking lifecycle events implement.
type domainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventPublisher adapts the raw producer to the app layer's Publisher
// interface: one topic, JSON payloads, event name and timestamp in headers.
type EventPublisher struct {
	Producer *Producer
	Topic    string
}

func (p *EventPublisher) Publish(ctx context.Context, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	headers := map[string]string{"content-type": "application/json"}
	if e, ok := event.(domainEvent); ok {
		headers["event"] = e.EventName()
		headers["occurred-at"] = e.OccurredAt().UTC().Format(time.RFC3339)
	}
	return p.Producer.Publish(ctx, p.Topic, key, payload, headers)
}
