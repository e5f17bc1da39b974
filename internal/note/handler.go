package note

import (
	"log/slog"
	"net/http"
	"strconv"

	"student-records/internal/auth"
	"student-records/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
	errors  *httputil.ErrorResponder
	logger  *slog.Logger
}

func NewHandler(service Service, errors *httputil.ErrorResponder, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		errors:  errors,
		logger:  logger,
	}
}

// RegisterRoutes mounts the note endpoints; the router must already be
// behind the auth middleware.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/notes", h.List)
	router.Post("/notes", h.Create)
	router.Get("/notes/{id}", h.Get)
	router.Put("/notes/{id}", h.Update)
	router.Delete("/notes/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.owner(w, r)
	if !ok {
		return
	}

	notes, err := h.service.List(r.Context(), studentID)
	if err != nil {
		h.errors.RespondWithError(w, r, err, "Error retrieving notes")
		return
	}

	httputil.RespondWithData(w, http.StatusOK, "Notes retrieved successfully", notes)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.owner(w, r)
	if !ok {
		return
	}

	id, err := noteID(r)
	if err != nil {
		h.errors.RespondWithError(w, r, err, "Error retrieving note")
		return
	}

	note, err := h.service.Get(r.Context(), id, studentID)
	if err != nil {
		h.errors.RespondWithError(w, r, err, "Error retrieving note")
		return
	}

	httputil.RespondWithData(w, http.StatusOK, "Note retrieved successfully", note)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var input Input
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.errors.RespondWithError(w, r, err, "Error creating note")
		return
	}

	note, err := h.service.Create(r.Context(), input, studentID)
	if err != nil {
		h.errors.RespondWithError(w, r, err, "Error creating note")
		return
	}

	h.logger.InfoContext(r.Context(), "note created", "note_id", note.ID, "student_id", studentID)
	httputil.RespondWithData(w, http.StatusCreated, "Note created successfully", note)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.owner(w, r)
	if !ok {
		return
	}

	id, err := noteID(r)
	if err != nil {
		h.errors.RespondWithError(w, r, err, "Error updating note")
		return
	}

	var input Input
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.errors.RespondWithError(w, r, err, "Error updating note")
		return
	}

	note, err := h.service.Update(r.Context(), id, input, studentID)
	if err != nil {
		h.errors.RespondWithError(w, r, err, "Error updating note")
		return
	}

	httputil.RespondWithData(w, http.StatusOK, "Note updated successfully", note)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.owner(w, r)
	if !ok {
		return
	}

	id, err := noteID(r)
	if err != nil {
		h.errors.RespondWithError(w, r, err, "Error deleting note")
		return
	}

	note, err := h.service.Delete(r.Context(), id, studentID)
	if err != nil {
		h.errors.RespondWithError(w, r, err, "Error deleting note")
		return
	}

	h.logger.InfoContext(r.Context(), "note deleted", "note_id", note.ID, "student_id", studentID)
	httputil.RespondWithData(w, http.StatusOK, "Note deleted successfully", note)
}

// owner returns the authenticated student's id, answering 401 when the
// route was mounted without the auth middleware.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	stud, ok := auth.StudentFromContext(r.Context())
	if !ok {
		httputil.RespondWithMessage(w, http.StatusUnauthorized, auth.ErrMissingToken.Message)
		return 0, false
	}
	return stud.ID, true
}

// noteID parses the path id. An id that cannot name a note is not found.
func noteID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNoteNotFound
	}
	return id, nil
}
