package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lichenway/newsdesk/backend/internal/hub"
)

const (
	readWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Handler upgrades chat connections and pumps events between the
// websocket and the hub.
type Handler struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

// New creates the websocket handler.
func New(h *hub.Hub) *Handler {
	return &Handler{
		hub: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type sendMessagePayload struct {
	Content string `json:"content"`
}

type deleteMessagePayload struct {
	MessageID string `json:"message_id"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	log.Printf("[websocket] new connection %s", clientID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	outbound := make(chan hub.Event, 256)
	h.hub.HandleConnect(clientID, outbound)
	defer h.hub.HandleDisconnect(clientID)

	go h.writePump(ctx, conn, clientID, outbound)

	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	for {
		var msg inboundEvent
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error for %s: %v", clientID, err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readWait))
		h.handleEvent(clientID, outbound, msg)
	}
}

// handleEvent dispatches one inbound event. Events for a single
// connection are handled here sequentially, preserving arrival order.
func (h *Handler) handleEvent(clientID string, outbound chan hub.Event, msg inboundEvent) {
	switch msg.Event {
	case "send_message":
		var payload sendMessagePayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.sendError(outbound, "invalid send_message payload")
			return
		}
		h.hub.HandleSend(clientID, payload.Content)
	case "delete_message":
		var payload deleteMessagePayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.sendError(outbound, "invalid delete_message payload")
			return
		}
		h.hub.HandleDelete(clientID, payload.MessageID)
	case "clear_chat":
		h.hub.HandleClear(clientID)
	default:
		h.sendError(outbound, "unsupported event: "+msg.Event)
	}
}

func (h *Handler) sendError(outbound chan hub.Event, message string) {
	select {
	case outbound <- hub.Event{Event: hub.EventError, Data: hub.ErrorPayload{Message: message}}:
	default:
	}
}

// writePump is the only writer on the connection. It drains the hub's
// outbound channel and keeps the connection alive with pings.
func (h *Handler) writePump(ctx context.Context, conn *websocket.Conn, clientID string, outbound <-chan hub.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-outbound:
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("[websocket] write failed for %s: %v", clientID, err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
