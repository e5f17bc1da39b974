package note

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"student-records/internal/apperror"
	"student-records/internal/metrics"

	"github.com/uptrace/bun"
)

// ErrNoteNotFound covers both a missing note and a note of another student.
var ErrNoteNotFound = apperror.NotFound("Note not found")

// Repository stores notes. Every method filters by owner inside the statement
// itself.
type Repository interface {
	List(ctx context.Context, studentID int64) ([]Note, error)
	Get(ctx context.Context, id, studentID int64) (*Note, error)
	Create(ctx context.Context, note *Note) (*Note, error)
	Update(ctx context.Context, id, studentID int64, input Input) (*Note, error)
	Delete(ctx context.Context, id, studentID int64) (*Note, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.DatabaseMetrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m.Database,
	}
}

func (r *repository) List(ctx context.Context, studentID int64) ([]Note, error) {
	start := time.Now()
	notes := make([]Note, 0)
	err := r.db.NewSelect().
		Model(&notes).
		Where("student_id = ?", studentID).
		OrderExpr("created_at DESC, id DESC").
		Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "notes", time.Since(start), err)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.Infrastructure("list notes", err)
	}
	return notes, nil
}

func (r *repository) Get(ctx context.Context, id, studentID int64) (*Note, error) {
	start := time.Now()
	note := new(Note)
	err := r.db.NewSelect().
		Model(note).
		Where("id = ?", id).
		Where("student_id = ?", studentID).
		Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "notes", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, apperror.Infrastructure("select note", err)
	}
	return note, nil
}

func (r *repository) Create(ctx context.Context, note *Note) (*Note, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(note).Returning("*").Exec(ctx)

	r.metrics.RecordQuery(ctx, "insert", "notes", time.Since(start), err)

	if err != nil {
		return nil, apperror.Infrastructure("insert note", err)
	}
	return note, nil
}

func (r *repository) Update(ctx context.Context, id, studentID int64, input Input) (*Note, error) {
	start := time.Now()
	note := &Note{Title: input.Title, Content: input.Content}
	res, err := r.db.NewUpdate().
		Model(note).
		Column("title", "content", "updated_at").
		Where("id = ?", id).
		Where("student_id = ?", studentID).
		Returning("*").
		Exec(ctx)

	r.metrics.RecordQuery(ctx, "update", "notes", time.Since(start), err)

	if err := affectedOne(res, err, "update note"); err != nil {
		return nil, err
	}
	return note, nil
}

func (r *repository) Delete(ctx context.Context, id, studentID int64) (*Note, error) {
	start := time.Now()
	note := new(Note)
	res, err := r.db.NewDelete().
		Model(note).
		Where("id = ?", id).
		Where("student_id = ?", studentID).
		Returning("*").
		Exec(ctx)

	r.metrics.RecordQuery(ctx, "delete", "notes", time.Since(start), err)

	if err := affectedOne(res, err, "delete note"); err != nil {
		return nil, err
	}
	return note, nil
}

// affectedOne turns the result of an owner-scoped write into ErrNoteNotFound
// when no row matched.
func affectedOne(res sql.Result, err error, op string) error {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoteNotFound
		}
		return apperror.Infrastructure(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Infrastructure(op, err)
	}
	if n == 0 {
		return ErrNoteNotFound
	}
	return nil
}
