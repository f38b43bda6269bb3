package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	wsHandler "github.com/lichenway/newsdesk/backend/internal/handler/ws"
	"github.com/lichenway/newsdesk/backend/internal/hub"
	middlewarePkg "github.com/lichenway/newsdesk/backend/internal/middleware"
	"github.com/lichenway/newsdesk/backend/pkg/utils"
)

// NewRouter wires the health check and the websocket endpoint.
func NewRouter(chatHub *hub.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/", handleHealthCheck)

	ws := wsHandler.New(chatHub)
	ws.RegisterRoutes(r)

	return r
}

// handleHealthCheck needs no session state.
func handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"message":   "Chat server is running with WebSocket support!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
