package note_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"student-records/internal/auth"
	"student-records/internal/httputil"
	"student-records/internal/messaging"
	"student-records/internal/metrics"
	"student-records/internal/note"
	"student-records/internal/student"
	"student-records/internal/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Types() []messaging.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]messaging.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type handlerFixture struct {
	router    chi.Router
	publisher *recordingPublisher
	annToken  string
	bobToken  string
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	database := testdb.NewSQLite(t, (*student.Student)(nil), (*note.Note)(nil))
	mockMetrics := metrics.NewMock()
	students := student.NewRepository(database, mockMetrics)

	tokens, err := auth.NewTokenService("test-secret-key-for-testing", time.Hour)
	require.NoError(t, err)

	tokenFor := func(name string) string {
		s, err := students.Create(t.Context(), &student.Student{
			Name:     name,
			Email:    strings.ToLower(name) + "@x.com",
			Password: "digest",
		})
		require.NoError(t, err)
		token, err := tokens.Issue(s.ID)
		require.NoError(t, err)
		return token
	}

	publisher := &recordingPublisher{}
	service := note.NewService(note.NewRepository(database, mockMetrics), publisher, mockMetrics, discardLogger())
	handler := note.NewHandler(service, httputil.NewErrorResponder(discardLogger(), false), discardLogger())
	authenticator := auth.NewAuthenticator(tokens, students, mockMetrics, discardLogger())

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Use(authenticator.Middleware)
		handler.RegisterRoutes(r)
	})

	return &handlerFixture{
		router:    router,
		publisher: publisher,
		annToken:  tokenFor("Ann"),
		bobToken:  tokenFor("Bob"),
	}
}

func (f *handlerFixture) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	return w, envelope
}

func TestHandler_Shared(t *testing.T) {
	f := newHandlerFixture(t)

	var noteID int64

	t.Run("List_EmptyIsArray", func(t *testing.T) {
		w, envelope := f.do(t, http.MethodGet, "/api/notes", f.annToken, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"data":[]`)
		assert.Equal(t, "Notes retrieved successfully", envelope["message"])
	})

	t.Run("Create_Success", func(t *testing.T) {
		w, envelope := f.do(t, http.MethodPost, "/api/notes", f.annToken, `{"title":"T","content":"C"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, true, envelope["success"])
		assert.Equal(t, "Note created successfully", envelope["message"])

		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, "T", data["title"])
		assert.Equal(t, "C", data["content"])
		assert.Contains(t, data, "studentId")
		assert.Contains(t, data, "createdAt")
		assert.Contains(t, data, "updatedAt")
		noteID = int64(data["id"].(float64))
	})

	t.Run("Create_MissingContent", func(t *testing.T) {
		w, envelope := f.do(t, http.MethodPost, "/api/notes", f.annToken, `{"title":"T","content":"   "}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Title and content are required", envelope["message"])
	})

	t.Run("Create_MalformedBody", func(t *testing.T) {
		w, envelope := f.do(t, http.MethodPost, "/api/notes", f.annToken, `not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request body", envelope["message"])
	})

	t.Run("Get_Owner", func(t *testing.T) {
		w, envelope := f.do(t, http.MethodGet, fmt.Sprintf("/api/notes/%d", noteID), f.annToken, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Note retrieved successfully", envelope["message"])
	})

	t.Run("OtherStudentGetsNotFound", func(t *testing.T) {
		path := fmt.Sprintf("/api/notes/%d", noteID)

		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			w, envelope := f.do(t, method, path, f.bobToken, `{"title":"X","content":"Y"}`)
			assert.Equal(t, http.StatusNotFound, w.Code, method)
			assert.Equal(t, "Note not found", envelope["message"], method)
		}

		w, _ := f.do(t, http.MethodGet, "/api/notes", f.bobToken, "")
		assert.Contains(t, w.Body.String(), `"data":[]`)
	})

	t.Run("NonNumericID", func(t *testing.T) {
		w, envelope := f.do(t, http.MethodGet, "/api/notes/abc", f.annToken, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Note not found", envelope["message"])
	})

	t.Run("Update_Success", func(t *testing.T) {
		w, envelope := f.do(t, http.MethodPut, fmt.Sprintf("/api/notes/%d", noteID), f.annToken, `{"title":"T2","content":"C2"}`)
		require.Equal(t, http.StatusOK, w.Code)

		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, "T2", data["title"])
		assert.Equal(t, "C2", data["content"])
	})

	t.Run("Delete_ThenNotFound", func(t *testing.T) {
		path := fmt.Sprintf("/api/notes/%d", noteID)

		w, envelope := f.do(t, http.MethodDelete, path, f.annToken, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Note deleted successfully", envelope["message"])
		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, "T2", data["title"])

		w, _ = f.do(t, http.MethodDelete, path, f.annToken, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("WithoutToken", func(t *testing.T) {
		w, envelope := f.do(t, http.MethodGet, "/api/notes", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Access token required", envelope["message"])
	})

	t.Run("EventsPublished", func(t *testing.T) {
		assert.Equal(t, []messaging.EventType{
			messaging.EventNoteCreated,
			messaging.EventNoteUpdated,
			messaging.EventNoteDeleted,
		}, f.publisher.Types())
	})
}
