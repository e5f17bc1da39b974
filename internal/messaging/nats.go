package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"student-records/internal/metrics"

	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	metrics *metrics.MessagingMetrics
	logger  *slog.Logger
}

func NewNATSPublisher(url string, subject string, m *metrics.MessagingMetrics, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("student-records"))
	if err != nil {
		return nil, err
	}

	logger.Info("NATS publisher initialized", "url", url, "subject", subject)

	return &NATSPublisher{
		conn:    nc,
		subject: subject,
		metrics: m,
		logger:  logger,
	}, nil
}

// Publish sends the event on "<subject>.<event type>".
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := p.subject + "." + string(event.Type)

	start := time.Now()
	err = p.conn.Publish(subject, payload)
	p.metrics.RecordPublish(ctx, "nats", string(event.Type), time.Since(start), err)
	if err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "event sent to NATS", "subject", subject)
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
