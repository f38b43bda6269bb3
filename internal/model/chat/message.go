package chat

import "time"

// Roles carried in the wire-level user_id field.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Display names shown next to messages in the room.
const (
	AuthorUser      = "User"
	AuthorAssistant = "Assistant"
)

// Message is a single entry in the shared room log. The JSON shape is
// part of the client protocol and must not change.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}
