package student

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"student-records/internal/apperror"
	"student-records/internal/metrics"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrStudentNotFound = apperror.NotFound("student not found")
	ErrEmailExists     = apperror.Validation("Student with this email already exists")
)

type Repository interface {
	Create(ctx context.Context, student *Student) (*Student, error)
	GetByID(ctx context.Context, id int64) (*Student, error)
	GetByEmail(ctx context.Context, email string) (*Student, error)
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

func (r *repository) Create(ctx context.Context, student *Student) (*Student, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(student).Returning("*").Exec(ctx)

	r.metrics.RecordQuery(ctx, "insert", "students", time.Since(start), err)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, apperror.Infrastructure("insert student", err)
	}
	return student, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Student, error) {
	start := time.Now()
	student := new(Student)
	err := r.db.NewSelect().Model(student).Where("id = ?", id).Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, apperror.Infrastructure("select student by id", err)
	}
	return student, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Student, error) {
	start := time.Now()
	student := new(Student)
	err := r.db.NewSelect().
		Model(student).
		Where("email = ?", email).
		Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, apperror.Infrastructure("select student by email", err)
	}
	return student, nil
}

// isUniqueViolation recognizes unique-constraint failures from both drivers.
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}
