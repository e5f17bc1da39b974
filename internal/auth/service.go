package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"student-records/internal/apperror"
	"student-records/internal/messaging"
	"student-records/internal/metrics"
	"student-records/internal/student"

	"github.com/go-playground/validator/v10"
)

type Service struct {
	studentRepo student.Repository
	hasher      PasswordHasher
	tokens      *TokenService
	publisher   messaging.Publisher
	metrics     *metrics.DomainMetrics
	logger      *slog.Logger
	validate    *validator.Validate

	// dummyDigest is compared against on unknown-email logins
	dummyDigest string
}

// fallbackDigest is a valid cost-10 bcrypt digest used when the hasher
// cannot produce a placeholder of its own.
const fallbackDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func NewService(
	studentRepo student.Repository,
	hasher PasswordHasher,
	tokens *TokenService,
	publisher messaging.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	dummyDigest, err := hasher.Hash("login-timing-placeholder")
	if err != nil {
		logger.Warn("failed to prepare placeholder digest, using fallback", "error", err)
		dummyDigest = fallbackDigest
	}

	return &Service{
		studentRepo: studentRepo,
		hasher:      hasher,
		tokens:      tokens,
		publisher:   publisher,
		metrics:     m.Domain,
		logger:      logger,
		validate:    validator.New(),
		dummyDigest: dummyDigest,
	}
}

// Register creates a new student account and signs it in
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validateRegister(req); err != nil {
		return nil, err
	}

	// Fast path; the unique constraint settles concurrent registrations
	_, err := s.studentRepo.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, student.ErrEmailExists
	}
	if !errors.Is(err, student.ErrStudentNotFound) {
		return nil, err
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Infrastructure("hash password", err)
	}

	created, err := s.studentRepo.Create(ctx, &student.Student{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashedPassword,
		Age:      req.Age.intPtr(),
		Grade:    nonEmpty(req.Grade),
		Major:    nonEmpty(req.Major),
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return nil, apperror.Infrastructure("issue token", err)
	}

	s.metrics.RecordStudentRegistration(ctx)
	messaging.PublishBestEffort(ctx, s.publisher, s.logger, messaging.NewEvent(messaging.EventStudentRegistered, created.ID, 0))

	return &AuthResponse{Student: created, Token: token}, nil
}

// Login authenticates a student. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, ErrLoginFieldsRequired
	}

	stud, err := s.studentRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, student.ErrStudentNotFound) {
			return nil, err
		}
		// Spend the same bcrypt work as a real comparison
		s.hasher.Verify(req.Password, s.dummyDigest)
		s.metrics.RecordLoginFailure(ctx)
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(req.Password, stud.Password) {
		s.metrics.RecordLoginFailure(ctx)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(stud.ID)
	if err != nil {
		return nil, apperror.Infrastructure("issue token", err)
	}

	s.metrics.RecordLogin(ctx)
	return &AuthResponse{Student: stud, Token: token}, nil
}

func (s *Service) validateRegister(req RegisterRequest) error {
	if err := s.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return ErrRegisterFieldsRequired
		}
		for _, fe := range fieldErrs {
			if fe.Tag() == "required" {
				return ErrRegisterFieldsRequired
			}
		}
		switch fieldErrs[0].Field() {
		case "Email":
			return ErrInvalidEmail
		case "Age":
			return ErrInvalidAge
		default:
			return ErrRegisterFieldsRequired
		}
	}

	if len(req.Password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
