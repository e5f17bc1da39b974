// Package messaging publishes domain events (student registrations and note
// changes) to NATS or Kafka.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"student-records/internal/config"
	"student-records/internal/metrics"
)

type EventType string

const (
	EventStudentRegistered EventType = "student.registered"
	EventNoteCreated       EventType = "note.created"
	EventNoteUpdated       EventType = "note.updated"
	EventNoteDeleted       EventType = "note.deleted"
)

type Event struct {
	Type       EventType `json:"type"`
	StudentID  int64     `json:"studentId"`
	NoteID     int64     `json:"noteId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewEvent(eventType EventType, studentID, noteID int64) Event {
	return Event{
		Type:       eventType,
		StudentID:  studentID,
		NoteID:     noteID,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// NewPublisher builds the publisher selected by cfg.Driver.
func NewPublisher(cfg config.EventsConfig, m *metrics.Metrics, logger *slog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return NoopPublisher{}, nil
	case "nats":
		return NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, m.Messaging, logger)
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, m.Messaging, logger)
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}

// PublishBestEffort sends event and only logs a failure: the write the event
// describes has already been committed.
func PublishBestEffort(ctx context.Context, p Publisher, logger *slog.Logger, event Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event",
			"type", string(event.Type),
			"student_id", event.StudentID,
			"error", err,
		)
	}
}
