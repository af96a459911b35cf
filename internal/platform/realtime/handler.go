package realtime

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// Handler upgrades authenticated requests to websocket connections
// registered with a Hub.
type Handler struct {
	hub      *Hub
	verifier *TokenVerifier
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a websocket handler.
func NewHandler(hub *Hub, verifier *TokenVerifier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers connect from the web app's origin; the token is the credential.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "realtime_handler")),
	}
}

// tokenFromRequest reads the token from the "token" query parameter, which
// browsers can set on a websocket URL, or from a Bearer Authorization header.
func tokenFromRequest(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// ServeHTTP authenticates the request, upgrades it and blocks until the
// connection closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := h.verifier.Verify(r.Context(), tokenFromRequest(r))
	if err != nil {
		msg := "Invalid token"
		switch {
		case errors.Is(err, ErrMissingToken):
			msg = "Authentication token required"
		case errors.Is(err, ErrExpiredToken):
			msg = "Token expired"
		}
		respondWithJSON(w, http.StatusUnauthorized, errorResponse{Error: msg})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.hub.register(c)

	go h.hub.writePump(c)
	h.hub.readPump(c)
}

// NewRouter mounts the websocket endpoint at /ws and a liveness probe at
// /healthz. A non-nil metrics handler is served at /metrics.
func NewRouter(h *Handler, metrics http.Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("Failed to write health check response", "error", err)
		}
	})
	r.Handle("/ws", h)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	return r
}
