package hub

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	model "github.com/lichenway/newsdesk/backend/internal/model/chat"
	"github.com/lichenway/newsdesk/backend/internal/service/agent"
	"github.com/lichenway/newsdesk/backend/internal/service/chat"
	"github.com/lichenway/newsdesk/backend/internal/service/session"
)

// Outbound event names. Part of the client protocol.
const (
	EventConnectionResponse = "connection_response"
	EventNewMessage         = "new_message"
	EventPreferenceUpdate   = "preference_update"
	EventPreferencesReset   = "preferences_reset"
	EventChatCleared        = "chat_cleared"
	EventMessageDeleted     = "message_deleted"
	EventError              = "error"
)

const onboardingCompleteMessage = "Great! I have all your preferences. Now I can help you with news and information. What would you like to know about?"

// Event is the outbound envelope written to a connection.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ConnectionResponse acknowledges a successful connect.
type ConnectionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// PreferenceUpdate tells the originating client one answer was stored.
type PreferenceUpdate struct {
	PreferenceID string `json:"preferenceId"`
	Value        string `json:"value"`
}

// PreferencesReset tells the originating client to blank its
// preference UI after a clear.
type PreferencesReset struct{}

// ChatCleared is broadcast after the room log was emptied.
type ChatCleared struct {
	ClearedBy string    `json:"cleared_by"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageDeleted is broadcast after a successful delete.
type MessageDeleted struct {
	MessageID string `json:"message_id"`
	DeletedBy string `json:"deleted_by"`
}

// ErrorPayload carries a client-visible protocol error.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Hub is the single entry point for connection events. It owns the
// client map and coordinates the store, the session registry, the
// scheduler and the conversational backend.
type Hub struct {
	store     *chat.Store
	registry  *session.Registry
	turner    agent.Turner
	scheduler *Scheduler
	botDelay  time.Duration

	mu      sync.Mutex
	clients map[string]chan<- Event
}

// New wires the hub. turner may be nil when no backend credentials are
// configured; post-onboarding messages then receive a fallback reply.
func New(store *chat.Store, registry *session.Registry, turner agent.Turner, botDelay time.Duration) *Hub {
	h := &Hub{
		store:    store,
		registry: registry,
		turner:   turner,
		botDelay: botDelay,
		clients:  make(map[string]chan<- Event),
	}
	h.scheduler = NewScheduler(h.deliverScheduled)
	return h
}

// HandleConnect registers the connection's outbound channel, installs
// a fresh session and acknowledges the connect.
func (h *Hub) HandleConnect(clientID string, outbound chan<- Event) {
	h.registry.OnConnect(clientID)

	h.mu.Lock()
	h.clients[clientID] = outbound
	h.mu.Unlock()

	log.Printf("[hub] client %s connected", clientID)
	h.emit(To(clientID), EventConnectionResponse, ConnectionResponse{
		Status:  "connected",
		Message: "Successfully connected to chat server",
	})
}

// HandleDisconnect removes the connection and its session. In-flight
// backend calls and scheduled deliveries are not cancelled; a late
// single-target delivery simply finds no client to emit to.
func (h *Hub) HandleDisconnect(clientID string) {
	h.mu.Lock()
	delete(h.clients, clientID)
	h.mu.Unlock()

	h.registry.OnDisconnect(clientID)
	log.Printf("[hub] client %s disconnected", clientID)
}

// HandleSend processes an inbound user message: store it, broadcast it
// to the room, then route it per the session's intake decision. The
// registry classifies and mutates in one call, so the event cannot be
// split by a concurrent clear.
func (h *Hub) HandleSend(clientID, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		h.emit(To(clientID), EventError, ErrorPayload{Message: "Message content cannot be empty"})
		return
	}

	intake, step := h.registry.Ingest(clientID, content)

	userMsg := chat.NewMessage(content, model.AuthorUser, model.RoleUser)
	h.store.Append(userMsg)
	h.emit(All(), EventNewMessage, userMsg)

	switch intake {
	case session.IntakeFirst:
		h.scheduler.Schedule(To(clientID), step.NextPrompt, h.botDelay)
	case session.IntakeAnswer:
		h.emit(To(clientID), EventPreferenceUpdate, PreferenceUpdate{
			PreferenceID: step.Key,
			Value:        step.Value,
		})
		if step.Completed {
			h.scheduler.Schedule(To(clientID), onboardingCompleteMessage, h.botDelay)
			return
		}
		h.scheduler.Schedule(To(clientID), step.NextPrompt, h.botDelay)
	default:
		h.dispatch(clientID, content)
	}
}

// dispatch forwards a post-onboarding message to the backend off the
// event path, so a slow model call never stalls other connections.
func (h *Hub) dispatch(clientID, content string) {
	go func() {
		reply := h.runTurn(clientID, content)
		h.scheduler.Schedule(To(clientID), reply, h.botDelay)
	}()
}

func (h *Hub) runTurn(clientID, content string) string {
	if h.turner == nil {
		return "I apologize, but the news agent is currently unavailable."
	}

	// Deliberately not tied to the connection context: a disconnect
	// must not cancel an in-flight turn.
	turn, err := h.turner.SendTurn(context.Background(),
		h.registry.ConversationID(clientID), content, h.registry.Preferences(clientID))
	if err != nil {
		log.Printf("[hub] backend turn failed for client %s: %v", clientID, err)
		return fmt.Sprintf("I apologize, but I encountered an error: %v", err)
	}

	h.registry.SetConversationID(clientID, turn.ConversationID)
	return turn.Reply
}

// HandleDelete removes a user-authored message from the room log.
func (h *Hub) HandleDelete(clientID, messageID string) {
	if messageID == "" {
		h.emit(To(clientID), EventError, ErrorPayload{Message: "Message ID is required"})
		return
	}

	_, err := h.store.Delete(messageID)
	switch {
	case errors.Is(err, chat.ErrNotDeletable):
		h.emit(To(clientID), EventError, ErrorPayload{Message: "You can only delete your own messages"})
		return
	case errors.Is(err, chat.ErrMessageNotFound):
		h.emit(To(clientID), EventError, ErrorPayload{Message: "Message not found"})
		return
	case err != nil:
		h.emit(To(clientID), EventError, ErrorPayload{Message: err.Error()})
		return
	}

	h.emit(All(), EventMessageDeleted, MessageDeleted{
		MessageID: messageID,
		DeletedBy: model.AuthorUser,
	})
}

// HandleClear empties the room log and resets every live session's
// onboarding state, no matter which connection asked.
func (h *Hub) HandleClear(clientID string) {
	removed := h.store.Clear()
	h.registry.ResetAll()

	h.emit(To(clientID), EventPreferencesReset, PreferencesReset{})
	h.emit(All(), EventChatCleared, ChatCleared{
		ClearedBy: model.AuthorUser,
		Message:   fmt.Sprintf("Chat cleared (%d messages removed)", removed),
		Timestamp: time.Now().UTC(),
	})
	log.Printf("[hub] chat cleared by client %s (%d messages removed)", clientID, removed)
}

// deliverScheduled runs when a scheduled bot message falls due: the
// message is created and stored now, then emitted to its target.
func (h *Hub) deliverScheduled(target Target, content string) {
	msg := chat.NewMessage(content, model.AuthorAssistant, model.RoleAssistant)
	h.store.Append(msg)
	h.emit(target, EventNewMessage, msg)
}

func (h *Hub) emit(target Target, event string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if target.Broadcast() {
		for id, outbound := range h.clients {
			h.push(id, outbound, Event{Event: event, Data: data})
		}
		return
	}

	outbound, ok := h.clients[target.clientID]
	if !ok {
		// Client went away; drop the delivery.
		return
	}
	h.push(target.clientID, outbound, Event{Event: event, Data: data})
}

func (h *Hub) push(clientID string, outbound chan<- Event, ev Event) {
	select {
	case outbound <- ev:
	default:
		log.Printf("[hub] dropping %s for slow client %s", ev.Event, clientID)
	}
}
