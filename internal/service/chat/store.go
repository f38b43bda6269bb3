package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lichenway/newsdesk/backend/internal/model/chat"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotDeletable    = errors.New("only user messages can be deleted")
)

// Store is the room-wide ordered message log shared by every
// connection. All access goes through the mutex; ordering reflects
// arrival order.
type Store struct {
	mu       sync.RWMutex
	messages []chat.Message
}

// NewStore bootstraps the in-memory message log.
func NewStore() *Store {
	return &Store{messages: make([]chat.Message, 0, 64)}
}

// NewMessage builds a room message with a fresh id and timestamp.
func NewMessage(content, author, role string) chat.Message {
	return chat.Message{
		ID:        uuid.NewString(),
		Content:   content,
		Author:    author,
		UserID:    role,
		Timestamp: time.Now().UTC(),
	}
}

// Append adds a message to the end of the log.
func (s *Store) Append(message chat.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, message)
	s.mu.Unlock()
}

// Delete removes the message with the given id. Assistant-authored
// messages are protected: deleting one fails with ErrNotDeletable and
// leaves the log untouched.
func (s *Store) Delete(messageID string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, msg := range s.messages {
		if msg.ID != messageID {
			continue
		}
		if msg.UserID != chat.RoleUser {
			return chat.Message{}, ErrNotDeletable
		}
		s.messages = append(s.messages[:i], s.messages[i+1:]...)
		return msg, nil
	}
	return chat.Message{}, ErrMessageNotFound
}

// Clear empties the log and reports how many messages were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.messages)
	s.messages = s.messages[:0]
	return removed
}

// List returns a copy of the current log in arrival order.
func (s *Store) List() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// Len reports the number of stored messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
