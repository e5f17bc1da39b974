package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"student-records/internal/app"
	"student-records/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type AppSuite struct {
	suite.Suite
	app    *app.App
	server *httptest.Server
}

func testConfig() *config.Config {
	return &config.Config{
		Env: "test",
		Server: config.ServerConfig{
			Port:        "0",
			CORSOrigins: []string{"*"},
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			Path:   ":memory:",
		},
		Auth: config.AuthConfig{
			JWTSecret:  "test-secret-key-for-testing",
			TokenTTL:   time.Hour,
			BcryptCost: 4,
		},
		Events: config.EventsConfig{Driver: "none"},
	}
}

func (s *AppSuite) SetupTest() {
	application, err := app.New(context.Background(), testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)

	s.app = application
	s.server = httptest.NewServer(application.Handler())
}

func (s *AppSuite) TearDownTest() {
	s.server.Close()
	s.NoError(s.app.Shutdown(context.Background()))
}

func (s *AppSuite) do(method, path, token, body string) (*http.Response, envelope) {
	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(body))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal(raw, &env), string(raw))
	return resp, env
}

func (s *AppSuite) register(name, email string) string {
	body := fmt.Sprintf(`{"name":%q,"email":%q,"password":"pw123"}`, name, email)
	resp, env := s.do(http.MethodPost, "/api/auth/register", "", body)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, env.Message)

	var data struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Require().NotEmpty(data.Token)
	return data.Token
}

func (s *AppSuite) TestNotesBelongToTheirOwner() {
	annToken := s.register("Ann", "ann@x.com")

	resp, env := s.do(http.MethodGet, "/api/auth/profile", annToken, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	var profile struct {
		Student struct {
			Name string `json:"name"`
		} `json:"student"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &profile))
	s.Equal("Ann", profile.Student.Name)

	resp, env = s.do(http.MethodPost, "/api/notes", annToken, `{"title":"T","content":"C"}`)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var created struct {
		ID int64 `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &created))

	bobToken := s.register("Bob", "bob@x.com")
	path := fmt.Sprintf("/api/notes/%d", created.ID)

	resp, env = s.do(http.MethodDelete, path, bobToken, "")
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("Note not found", env.Message)

	resp, _ = s.do(http.MethodGet, path, annToken, "")
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodDelete, path, annToken, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	resp, _ = s.do(http.MethodDelete, path, annToken, "")
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *AppSuite) TestLoginAfterRegister() {
	s.register("Ann", "ann@x.com")

	resp, env := s.do(http.MethodPost, "/api/auth/login", "", `{"email":"ann@x.com","password":"pw123"}`)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("Login successful", env.Message)

	resp, env = s.do(http.MethodPost, "/api/auth/login", "", `{"email":"ann@x.com","password":"wrong"}`)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("Invalid email or password", env.Message)
}

func (s *AppSuite) TestUnmatchedRoutes() {
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/nope"},
		{http.MethodGet, "/api/unknown"},
		{http.MethodPatch, "/api/notes"},
	} {
		resp, env := s.do(tc.method, tc.path, "", "")
		s.Equal(http.StatusNotFound, resp.StatusCode, tc.path)
		s.False(env.Success)
		s.Equal("Route not found", env.Message)
	}
}

func (s *AppSuite) TestPublicEndpoints() {
	resp, env := s.do(http.MethodGet, "/", "", "")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("Welcome to Student Records System API", env.Message)
	s.NotEmpty(resp.Header.Get("X-Request-ID"))

	for _, path := range []string{"/health", "/ready"} {
		r, err := s.server.Client().Get(s.server.URL + path)
		s.Require().NoError(err)
		r.Body.Close()
		s.Equal(http.StatusOK, r.StatusCode, path)
	}
}

func (s *AppSuite) TestProtectedWithoutToken() {
	resp, env := s.do(http.MethodGet, "/api/notes", "", "")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("Access token required", env.Message)
	s.Empty(env.Error)
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func TestNew_InvalidEventsDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Events.Driver = "carrier-pigeon"

	_, err := app.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event publisher")
}
