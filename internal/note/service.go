package note

import (
	"context"
	"log/slog"
	"strings"

	"student-records/internal/apperror"
	"student-records/internal/messaging"
	"student-records/internal/metrics"
)

var ErrTitleContentRequired = apperror.Validation("Title and content are required")

// Service exposes the notes of one student at a time; studentID always
// comes from the authenticated request.
type Service interface {
	List(ctx context.Context, studentID int64) ([]Note, error)
	Get(ctx context.Context, id, studentID int64) (*Note, error)
	Create(ctx context.Context, input Input, studentID int64) (*Note, error)
	Update(ctx context.Context, id int64, input Input, studentID int64) (*Note, error)
	Delete(ctx context.Context, id, studentID int64) (*Note, error)
}

type service struct {
	repo      Repository
	publisher messaging.Publisher
	metrics   *metrics.DomainMetrics
	logger    *slog.Logger
}

func NewService(repo Repository, publisher messaging.Publisher, m *metrics.Metrics, logger *slog.Logger) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
		metrics:   m.Domain,
		logger:    logger,
	}
}

func (s *service) List(ctx context.Context, studentID int64) ([]Note, error) {
	notes, err := s.repo.List(ctx, studentID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordNoteOperation(ctx, "list")
	return notes, nil
}

func (s *service) Get(ctx context.Context, id, studentID int64) (*Note, error) {
	if id <= 0 {
		return nil, ErrNoteNotFound
	}
	note, err := s.repo.Get(ctx, id, studentID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordNoteOperation(ctx, "get")
	return note, nil
}

func (s *service) Create(ctx context.Context, input Input, studentID int64) (*Note, error) {
	input, err := normalize(input)
	if err != nil {
		return nil, err
	}

	note, err := s.repo.Create(ctx, &Note{
		Title:     input.Title,
		Content:   input.Content,
		StudentID: studentID,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordNoteOperation(ctx, "create")
	messaging.PublishBestEffort(ctx, s.publisher, s.logger, messaging.NewEvent(messaging.EventNoteCreated, studentID, note.ID))
	return note, nil
}

func (s *service) Update(ctx context.Context, id int64, input Input, studentID int64) (*Note, error) {
	input, err := normalize(input)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, ErrNoteNotFound
	}

	note, err := s.repo.Update(ctx, id, studentID, input)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordNoteOperation(ctx, "update")
	messaging.PublishBestEffort(ctx, s.publisher, s.logger, messaging.NewEvent(messaging.EventNoteUpdated, studentID, note.ID))
	return note, nil
}

func (s *service) Delete(ctx context.Context, id, studentID int64) (*Note, error) {
	if id <= 0 {
		return nil, ErrNoteNotFound
	}

	note, err := s.repo.Delete(ctx, id, studentID)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordNoteOperation(ctx, "delete")
	messaging.PublishBestEffort(ctx, s.publisher, s.logger, messaging.NewEvent(messaging.EventNoteDeleted, studentID, note.ID))
	return note, nil
}

// normalize trims title and content; both must remain non-empty.
func normalize(input Input) (Input, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if input.Title == "" || input.Content == "" {
		return input, ErrTitleContentRequired
	}
	return input, nil
}
