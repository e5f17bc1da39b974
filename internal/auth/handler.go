package auth

import (
	"log/slog"
	"net/http"

	"student-records/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	errors  *httputil.ErrorResponder
	logger  *slog.Logger
}

func NewHandler(service *Service, errors *httputil.ErrorResponder, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		errors:  errors,
		logger:  logger,
	}
}

// RegisterRoutes mounts the auth endpoints. protect wraps the routes that
// need a signed-in student.
func (h *Handler) RegisterRoutes(router chi.Router, protect func(http.Handler) http.Handler) {
	router.Post("/auth/register", h.Register)
	router.Post("/auth/login", h.Login)
	router.With(protect).Get("/auth/profile", h.Profile)
}

// Register creates a new student account
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.errors.RespondWithError(w, r, err, "Error registering student")
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.errors.RespondWithError(w, r, err, "Error registering student")
		return
	}

	h.logger.InfoContext(r.Context(), "student registered", "student_id", resp.Student.ID)
	httputil.RespondWithData(w, http.StatusCreated, "Student registered successfully", resp)
}

// Login authenticates a student
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.errors.RespondWithError(w, r, err, "Error during login")
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.errors.RespondWithError(w, r, err, "Error during login")
		return
	}

	h.logger.InfoContext(r.Context(), "student logged in", "student_id", resp.Student.ID)
	httputil.RespondWithData(w, http.StatusOK, "Login successful", resp)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	stud, ok := StudentFromContext(r.Context())
	if !ok {
		httputil.RespondWithMessage(w, http.StatusUnauthorized, ErrMissingToken.Message)
		return
	}

	httputil.RespondWithData(w, http.StatusOK, "Profile retrieved successfully", ProfileResponse{Student: stud})
}
