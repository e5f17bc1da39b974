package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"student-records/internal/httputil"
	"student-records/internal/metrics"
	"student-records/internal/student"
)

type contextKey string

// StudentKey is the context key for the authenticated student
const StudentKey contextKey = "student"

// Rejection reasons, recorded as metric attributes
const (
	reasonMissingToken   = "missing_token"
	reasonInvalidToken   = "invalid_token"
	reasonUnknownStudent = "unknown_student"
	reasonStoreFault     = "store_fault"
)

// Authenticator guards routes that need a signed-in student
type Authenticator struct {
	tokens   *TokenService
	students student.Repository
	logger   *slog.Logger
	metrics  *metrics.DomainMetrics
}

func NewAuthenticator(tokens *TokenService, students student.Repository, m *metrics.Metrics, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		tokens:   tokens,
		students: students,
		logger:   logger,
		metrics:  m.Domain,
	}
}

// Middleware resolves the bearer token to a student and stores it in the
// request context. Requests without a valid token never reach next.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			a.reject(w, r, reasonMissingToken, ErrMissingToken.Message)
			return
		}

		studentID, err := a.tokens.Verify(token)
		if err != nil {
			a.logger.DebugContext(ctx, "token rejected", "error", err)
			a.reject(w, r, reasonInvalidToken, ErrInvalidToken.Message)
			return
		}

		stud, err := a.students.GetByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, student.ErrStudentNotFound) {
				a.reject(w, r, reasonUnknownStudent, ErrMissingToken.Message)
				return
			}
			a.logger.ErrorContext(ctx, "failed to load student for token", "student_id", studentID, "error", err)
			a.reject(w, r, reasonStoreFault, ErrInvalidToken.Message)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithStudent(ctx, stud)))
	})
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, reason, message string) {
	a.metrics.RecordAuthRejection(r.Context(), reason)
	a.logger.InfoContext(r.Context(), "request unauthorized", "path", r.URL.Path, "reason", reason)
	httputil.RespondWithMessage(w, http.StatusUnauthorized, message)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithStudent returns a copy of ctx carrying the student
func WithStudent(ctx context.Context, s *student.Student) context.Context {
	return context.WithValue(ctx, StudentKey, s)
}

// StudentFromContext extracts the authenticated student from context
func StudentFromContext(ctx context.Context) (*student.Student, bool) {
	s, ok := ctx.Value(StudentKey).(*student.Student)
	return s, ok && s != nil
}
