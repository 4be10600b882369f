package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ysxye29-beep/tracnghiem/internal/auth"
	"github.com/ysxye29-beep/tracnghiem/internal/config"
	"github.com/ysxye29-beep/tracnghiem/internal/session"
)

// NewHTTPServer wires all routes for the API service.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, redisClient *redis.Client, tokens *auth.Manager, authHandlers *auth.HTTPHandlers, sessionHandlers *session.HTTPHandlers, wsHandler *session.WSHandler) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			logger.Error().Err(err).Msg("redis ping failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	// Auth endpoints
	mux.HandleFunc("POST /v1/auth/guest", authHandlers.CreateGuest)

	// Session endpoints (guest token required)
	authed := func(h http.HandlerFunc) http.Handler {
		return tokens.Middleware(h)
	}
	mux.Handle("POST /v1/session/text", authed(sessionHandlers.IntakeText))
	mux.Handle("POST /v1/session/upload", authed(sessionHandlers.IntakeDocument))
	mux.Handle("POST /v1/session/batch", authed(sessionHandlers.LoadBatch))
	mux.Handle("POST /v1/session/start", authed(sessionHandlers.Start))
	mux.Handle("POST /v1/session/answer", authed(sessionHandlers.SelectAnswer))
	mux.Handle("POST /v1/session/check", authed(sessionHandlers.CheckAnswer))
	mux.Handle("POST /v1/session/bookmark", authed(sessionHandlers.ToggleBookmark))
	mux.Handle("POST /v1/session/submit", authed(sessionHandlers.Submit))
	mux.Handle("POST /v1/session/retry", authed(sessionHandlers.Retry))
	mux.Handle("POST /v1/session/resume", authed(sessionHandlers.Resume))
	mux.Handle("POST /v1/session/discard", authed(sessionHandlers.Discard))
	mux.Handle("GET /v1/session", authed(sessionHandlers.CurrentView))
	mux.Handle("GET /v1/session/export", authed(sessionHandlers.Export))

	// History endpoints
	mux.Handle("GET /v1/history", authed(sessionHandlers.ListHistory))
	mux.Handle("DELETE /v1/history/{id}", authed(sessionHandlers.DeleteHistory))
	mux.Handle("POST /v1/history/{id}/view", authed(sessionHandlers.ViewHistory))

	// WebSocket endpoint; the handler authenticates via the token query param.
	mux.HandleFunc("GET /ws/session", wsHandler.HandleWebSocket)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware(cfg.CORS, mux),
	}
}

func corsMiddleware(cfg config.CORS, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = true
	}
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
