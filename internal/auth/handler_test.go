package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"student-records/internal/auth"
	"student-records/internal/httputil"
	"student-records/internal/metrics"
	"student-records/internal/student"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) chi.Router {
	t.Helper()

	f := newServiceFixture(t)
	authenticator := auth.NewAuthenticator(f.tokens, f.repo, metrics.NewMock(), discardLogger())
	handler := auth.NewHandler(f.service, httputil.NewErrorResponder(discardLogger(), false), discardLogger())

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r, authenticator.Middleware)
	})
	return router
}

func doJSON(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type authEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    auth.AuthResponse `json:"data"`
}

func TestHandler_Shared(t *testing.T) {
	router := newAuthRouter(t)

	var token string

	t.Run("Register_Success", func(t *testing.T) {
		payload, _ := json.Marshal(map[string]interface{}{
			"name":     "Ann",
			"email":    "ann@x.com",
			"password": "pw123",
			"age":      20,
		})

		w := doJSON(router, http.MethodPost, "/api/auth/register", string(payload), "")
		require.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
		assert.NotContains(t, w.Body.String(), "pw123")

		var response authEnvelope
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.True(t, response.Success)
		assert.Equal(t, "Student registered successfully", response.Message)
		require.NotNil(t, response.Data.Student)
		assert.Equal(t, "Ann", response.Data.Student.Name)
		assert.NotEmpty(t, response.Data.Token)
		token = response.Data.Token
	})

	t.Run("Register_Duplicate", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/auth/register", `{"name":"Ann","email":"ann@x.com","password":"other"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Student with this email already exists")
	})

	t.Run("Register_MissingFields", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/auth/register", `{"name":"Bob"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Name, email, and password are required")
	})

	t.Run("Register_AgeAsString", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/auth/register", `{"name":"Cy","email":"cy@x.com","password":"pw","age":"21"}`, "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var response authEnvelope
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		require.NotNil(t, response.Data.Student.Age)
		assert.Equal(t, 21, *response.Data.Student.Age)
	})

	t.Run("Register_AgeNotANumber", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/auth/register", `{"name":"Di","email":"di@x.com","password":"pw","age":"twenty"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid request body")
	})

	t.Run("Register_BlankName", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/auth/register", `{"name":"   ","email":"ed@x.com","password":"pw"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Name, email, and password are required")
	})

	t.Run("Register_MalformedBody", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/auth/register", `{"name":`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var envelope httputil.Envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		assert.False(t, envelope.Success)
		assert.Equal(t, "Invalid request body", envelope.Message)
	})

	t.Run("Login_Success", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/auth/login", `{"email":"ann@x.com","password":"pw123"}`, "")
		require.Equal(t, http.StatusOK, w.Code)

		var response authEnvelope
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "Login successful", response.Message)
		assert.NotEmpty(t, response.Data.Token)
	})

	t.Run("Login_FailuresShareOneMessage", func(t *testing.T) {
		wrong := doJSON(router, http.MethodPost, "/api/auth/login", `{"email":"ann@x.com","password":"bad"}`, "")
		unknown := doJSON(router, http.MethodPost, "/api/auth/login", `{"email":"ghost@x.com","password":"pw123"}`, "")

		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
		assert.Contains(t, wrong.Body.String(), "Invalid email or password")
	})

	t.Run("Login_MissingFields", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/auth/login", `{"email":"ann@x.com"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Email and password are required")
	})

	t.Run("Profile", func(t *testing.T) {
		require.NotEmpty(t, token)

		w := doJSON(router, http.MethodGet, "/api/auth/profile", "", token)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data struct {
				Student student.Student `json:"student"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&response))
		assert.Equal(t, "Ann", response.Data.Student.Name)
		assert.Equal(t, "ann@x.com", response.Data.Student.Email)
		assert.Empty(t, response.Data.Student.Password)
	})

	t.Run("Profile_WithoutToken", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/auth/profile", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Access token required")
	})
}
