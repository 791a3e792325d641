// v2
// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Abhishek5467/dogpose-backend/internal/breaker"
	"github.com/Abhishek5467/dogpose-backend/internal/sensor"
	"github.com/Abhishek5467/dogpose-backend/internal/vision"
)

// kafkaMessageWriter is the write surface shared by the raw kafka.Writer and
// the breaker wrapper.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher streams accepted sensor readings and committed pose results to
// Kafka for downstream consumers. Publishes are best-effort: failures are
// logged and never surface to the request path. With no brokers configured
// every method is a no-op.
type Publisher struct {
	writer        kafkaMessageWriter
	closer        *kafka.Writer
	log           *slog.Logger
	topicReadings string
	topicResults  string
	timeout       time.Duration
}

// New wires the publisher. Brokers may be empty, which disables publishing
// entirely.
func New(brokers []string, topicReadings, topicResults string, log *slog.Logger) (*Publisher, error) {
	p := &Publisher{
		log:           log,
		topicReadings: topicReadings,
		topicResults:  topicResults,
		timeout:       5 * time.Second,
	}
	if len(brokers) == 0 {
		log.Info("event_publisher_disabled")
		return p, nil
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
	}
	kb, err := breaker.NewKafkaBreakerFromEnv("dogpose-event-publisher", log)
	if err != nil {
		return nil, err
	}
	p.closer = w
	p.writer = breaker.NewCBKafkaWriter(w, kb)
	log.Info("event_publisher_started",
		slog.String("readingsTopic", topicReadings),
		slog.String("resultsTopic", topicResults),
		slog.Bool("breaker", kb.Enabled()),
	)
	return p, nil
}

// PublishReading emits one committed sensor reading, real or synthetic.
func (p *Publisher) PublishReading(r sensor.Reading) {
	p.publish(p.topicReadings, []byte(string(r.Source)), r)
}

// PublishResult emits one committed classification outcome.
func (p *Publisher) PublishResult(res vision.Result) {
	p.publish(p.topicResults, []byte(res.ID), res)
}

func (p *Publisher) publish(topic string, key []byte, payload any) {
	if p.writer == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("event_marshal_failed", slog.Any("err", err), slog.String("topic", topic))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, kafka.Message{Topic: topic, Key: key, Value: b}); err != nil {
		p.log.Warn("event_publish_failed", slog.Any("err", err), slog.String("topic", topic))
		return
	}
	p.log.Info("event_published", slog.String("topic", topic))
}

// Close shuts down the underlying writer.
func (p *Publisher) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
