package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"student-records/internal/metrics"

	"github.com/IBM/sarama"
)

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	metrics  *metrics.MessagingMetrics
	logger   *slog.Logger
}

func NewKafkaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	return config
}

func NewKafkaPublisher(brokers []string, topic string, m *metrics.MessagingMetrics, logger *slog.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewKafkaConfig())
	if err != nil {
		return nil, err
	}

	logger.Info("kafka publisher initialized", "brokers", brokers, "topic", topic)

	return NewKafkaPublisherWithProducer(producer, topic, m, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer (useful for testing)
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, m *metrics.MessagingMetrics, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		metrics:  m,
		logger:   logger,
	}
}

// Publish keys messages by student id so one student's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.StudentID, 10)),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	start := time.Now()
	partition, offset, err := p.producer.SendMessage(msg)
	p.metrics.RecordPublish(ctx, "kafka", string(event.Type), time.Since(start), err)
	if err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "event sent to kafka", "topic", p.topic, "partition", partition, "offset", offset)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
