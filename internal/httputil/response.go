package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"student-records/internal/apperror"
)

// Envelope is the body shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithData writes a success envelope.
func RespondWithData(w http.ResponseWriter, code int, message string, data any) {
	RespondWithJSON(w, code, Envelope{Success: true, Message: message, Data: data})
}

// RespondWithMessage writes a failure envelope without detail.
func RespondWithMessage(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, Envelope{Success: false, Message: message})
}

// ErrorResponder maps service errors to envelopes. Detail of the internal
// cause is only exposed when ExposeDetail is set.
type ErrorResponder struct {
	Logger       *slog.Logger
	ExposeDetail bool
}

func NewErrorResponder(logger *slog.Logger, exposeDetail bool) *ErrorResponder {
	return &ErrorResponder{Logger: logger, ExposeDetail: exposeDetail}
}

// RespondWithError writes the envelope for err. fallback is the message used
// for errors that carry no client-safe message of their own.
func (e *ErrorResponder) RespondWithError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Infrastructure(fallback, err)
	}

	code := appErr.Kind.HTTPStatus()
	body := Envelope{Success: false, Message: appErr.Message}

	if appErr.Kind == apperror.KindInfrastructure {
		if fallback != "" {
			body.Message = fallback
		}
		e.Logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		if e.ExposeDetail && appErr.Err != nil {
			body.Error = appErr.Err.Error()
		}
	} else {
		e.Logger.InfoContext(r.Context(), "request rejected",
			"kind", appErr.Kind.String(),
			"path", r.URL.Path,
			"message", appErr.Message,
		)
	}

	RespondWithJSON(w, code, body)
}

// DecodeJSON decodes the request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperror.Validation("Invalid request body")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &apperror.Error{Kind: apperror.KindValidation, Message: "Invalid request body", Err: err}
	}
	return nil
}
