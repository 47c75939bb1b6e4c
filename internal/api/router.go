// internal/api/router.go
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"repo-insights/internal/auth"
	"repo-insights/internal/cooldown"
	"repo-insights/internal/history"
	"repo-insights/internal/insights"
	"repo-insights/internal/metrics"
	"repo-insights/internal/model"
)

const defaultRequestTimeout = 90 * time.Second

// InsightService generates insights and records them for a user.
type InsightService interface {
	Generate(ctx context.Context, repoURL string) (*insights.Result, error)
	Record(ctx context.Context, userID int64, res *insights.Result)
}

// HistoryStore is the per-user history backing the /api/spoons routes.
type HistoryStore interface {
	Save(ctx context.Context, userID int64, e history.Entry) (*model.PersistedInsight, error)
	List(ctx context.Context, userID int64, page, limit int) (*model.HistoryPage, error)
	Get(ctx context.Context, id, userID int64) (*model.PersistedInsight, error)
	Delete(ctx context.Context, id, userID int64) (bool, error)
}

// UserStore looks up the stored profile behind a token.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Insights       InsightService
	History        HistoryStore
	Users          UserStore
	Cooldown       cooldown.Limiter
	Auth           *auth.Issuer
	Logger         *slog.Logger
	CORSOrigins    []string
	RequestTimeout time.Duration
	// Pending tracks history saves still running after their response was written.
	// Callers wait on it during shutdown.
	Pending *sync.WaitGroup
}

// Handler is the container for API dependencies.
type Handler struct {
	insights InsightService
	history  HistoryStore
	users    UserStore
	cooldown cooldown.Limiter
	auth     *auth.Issuer
	logger   *slog.Logger
	pending  *sync.WaitGroup
	now      func() time.Time
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(d Deps) http.Handler {
	h := &Handler{
		insights: d.Insights,
		history:  d.History,
		users:    d.Users,
		cooldown: d.Cooldown,
		auth:     d.Auth,
		logger:   d.Logger,
		pending:  d.Pending,
		now:      time.Now,
	}
	if h.pending == nil {
		h.pending = new(sync.WaitGroup)
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}
	r.Use(middleware.Timeout(timeout))

	r.NotFound(h.notFound)
	r.Get("/health", h.healthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Get("/verify", h.verifyToken)
		r.Post("/logout", h.logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Middleware)

		r.Route("/api/insights", func(r chi.Router) {
			r.Post("/", h.generateInsights)
			r.Get("/health", h.insightsHealth)
			r.Get("/user", h.currentUser)
		})

		r.Route("/api/spoons/history", func(r chi.Router) {
			r.Post("/", h.saveHistory)
			r.Get("/", h.listHistory)
			r.Get("/{id}", h.getHistory)
			r.Delete("/{id}", h.deleteHistory)
		})
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"message":   "Repo insights server is running",
		"timestamp": h.timestamp(),
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, http.StatusNotFound, "route_not_found", "Cannot "+r.Method+" "+r.URL.Path)
}

func (h *Handler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339Nano)
}

// requestLogger writes one slog line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Info("HTTP request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start).String(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
