package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"student-records/internal/httputil"
	"student-records/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// Pinger is satisfied by *bun.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	db      Pinger
	metrics *metrics.HealthMetrics
	logger  *slog.Logger
	timeout time.Duration
}

func NewHandler(db Pinger, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		db:      db,
		metrics: m.Health,
		logger:  logger,
		timeout: 2 * time.Second,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
}

type HealthResponse struct {
	Status string `json:"status"`
}

// Health reports liveness; it never touches dependencies.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready reports whether the database answers a ping.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	wasUp := h.metrics.DependencyAvailable("database")

	start := time.Now()
	err := h.db.PingContext(ctx)
	h.metrics.RecordDependencyCheck(ctx, "database", time.Since(start), err)

	if err != nil {
		h.logger.WarnContext(ctx, "readiness check failed", "dependency", "database", "error", err)
		httputil.RespondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}

	// Log the down-to-up transition once
	if !wasUp {
		h.logger.InfoContext(ctx, "dependency available", "dependency", "database")
	}

	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}
