package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/arcade-profiles/internal/config"
	"github.com/arcade-profiles/internal/domain"
	"github.com/arcade-profiles/internal/service"
	"github.com/arcade-profiles/internal/validation"
	"github.com/arcade-profiles/internal/websocket"
)

// readyTimeout bounds each dependency ping of the readiness check
const readyTimeout = 2 * time.Second

// Pinger is a dependency polled by the readiness check
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides HTTP handlers for the arcade API
type Handler struct {
	service        *service.ArcadeService
	hub            *websocket.Hub
	ws             http.Handler
	limiter        *RateLimiter
	allowedOrigins []string
	checks         map[string]Pinger
	logger         *slog.Logger
}

// NewHandler creates a new HTTP handler. checks are pinged by /ready.
func NewHandler(
	svc *service.ArcadeService,
	hub *websocket.Hub,
	cfg *config.Config,
	checks map[string]Pinger,
	logger *slog.Logger,
) *Handler {
	h := &Handler{
		service:        svc,
		hub:            hub,
		ws:             websocket.NewHTTPHandler(hub, cfg.CORS.AllowedOrigins, logger),
		allowedOrigins: cfg.CORS.AllowedOrigins,
		checks:         checks,
		logger:         logger,
	}
	if cfg.RateLimit.Enabled {
		h.limiter = NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	return h
}

// Close releases background resources held by the handler
func (h *Handler) Close() {
	if h.limiter != nil {
		h.limiter.Close()
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/badge-login", h.BadgeLogin)

		// Score operations
		r.Get("/scores", h.GetTopScores)
		r.With(h.throttle).Post("/scores", h.SubmitScore)
		r.With(h.throttle).Post("/scores/batch", h.SubmitScoreBatch)

		r.Route("/highscores/{game}", func(r chi.Router) {
			r.Get("/", h.GetHighscores)
			r.Get("/rank/{ref}", h.GetPlayerRank)
			r.Get("/category/{category}", h.GetShooterLeaderboard)
		})

		r.Route("/players", func(r chi.Router) {
			r.Get("/", h.ListPlayers)
			r.Post("/", h.RegisterPlayer)

			r.Route("/{ref}", func(r chi.Router) {
				r.Get("/", h.GetPlayer)
				r.Get("/scores/{game}", h.GetPlayerScores)

				r.Route("/platform", func(r chi.Router) {
					r.Get("/", h.GetPlatformProfile)
					r.Put("/", h.UpdatePlatformProfile)
					r.Post("/unlock", h.UnlockLevel)
					r.Post("/purchase-skin", h.PurchaseSkin)
					r.Post("/purchase-ability", h.PurchaseAbility)
					r.Post("/equip", h.EquipSkin)
					r.Post("/sync-levels", h.SyncLevels)
					r.With(h.throttle).Post("/level-complete", h.CompleteLevel)
				})

				r.Route("/shooter", func(r chi.Router) {
					r.Get("/", h.GetShooterProfile)
					r.Put("/", h.UpdateShooterProfile)
					r.Get("/analytics", h.GetShooterAnalytics)
				})
			})
		})

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// throttle rejects clients that exceed the submission rate
func (h *Handler) throttle(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			h.writeError(w, http.StatusTooManyRequests, domain.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode response", "error", err)
	}
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data any) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps a service error to a status code. Unexpected errors are logged and hidden.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case domain.IsNotFoundError(err), errors.Is(err, domain.ErrUnknownGame):
		h.writeError(w, http.StatusNotFound, err)
	case domain.IsConflictError(err), errors.Is(err, domain.ErrVersionConflict):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrNotOwned), errors.Is(err, domain.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err)
	default:
		h.logger.Error(msg, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// decodeAndValidate reads a JSON body into v and checks its validation tags
func decodeAndValidate(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding body: %w", domain.ErrInvalidRequest)
	}
	return validation.Validate(v)
}

// queryInt reads a non-negative integer query parameter, returning 0 when absent or malformed
func queryInt(r *http.Request, name string) int {
	if s := r.URL.Query().Get(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.ws.ServeHTTP(w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]any{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck pings every dependency and reports 503 when one is down
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	status := make(map[string]string, len(h.checks))
	ready := true
	for name, dep := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		err := dep.Ping(ctx)
		cancel()
		if err != nil {
			h.logger.Warn("dependency not ready", "dependency", name, "error", err)
			status[name] = "unavailable"
			ready = false
			continue
		}
		status[name] = "ok"
	}

	if !ready {
		h.writeJSON(w, http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Data:    status,
			Error:   "service not ready",
		})
		return
	}
	status["status"] = "ready"
	h.writeSuccess(w, status)
}
