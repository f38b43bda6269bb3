package session

import (
	"sync"

	"github.com/lichenway/newsdesk/backend/internal/model/chat"
	"github.com/lichenway/newsdesk/backend/internal/model/prefs"
)

// Registry maps connection ids to their sessions and drives the
// onboarding questionnaire. Every mutation of a session happens under
// the registry mutex, so concurrent events for the same connection
// never interleave partially.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*chat.Session
	questions []prefs.Question
}

// NewRegistry builds a registry around the given questionnaire.
func NewRegistry(questions []prefs.Question) *Registry {
	return &Registry{
		sessions:  make(map[string]*chat.Session),
		questions: questions,
	}
}

// OnConnect installs a fresh session for the connection. A second
// connect for the same id re-initializes the session rather than
// failing.
func (r *Registry) OnConnect(clientID string) {
	r.mu.Lock()
	r.sessions[clientID] = chat.NewSession(clientID)
	r.mu.Unlock()
}

// OnDisconnect discards the session. Scheduled deliveries for the id
// keep firing; the hub drops them on emit.
func (r *Registry) OnDisconnect(clientID string) {
	r.mu.Lock()
	delete(r.sessions, clientID)
	r.mu.Unlock()
}

// getOrCreate returns the live session, lazily recreating one when the
// connect bookkeeping was lost. Caller must hold r.mu.
func (r *Registry) getOrCreate(clientID string) *chat.Session {
	sess, ok := r.sessions[clientID]
	if !ok {
		sess = chat.NewSession(clientID)
		r.sessions[clientID] = sess
	}
	return sess
}

func (r *Registry) complete(sess *chat.Session) bool {
	return sess.NextQuestion >= len(r.questions)
}

// Intake classifies one inbound user message.
type Intake int

const (
	// IntakeFirst is the session's first message. It only triggers
	// question zero and is never stored as an answer.
	IntakeFirst Intake = iota
	// IntakeAnswer stored the message as an onboarding answer.
	IntakeAnswer
	// IntakeChat marks onboarding complete; the message belongs to the
	// conversational backend.
	IntakeChat
)

// Step is the outcome of ingesting one user message. NextPrompt is the
// bot message to schedule next, when there is one.
type Step struct {
	Key        string
	Value      string
	NextPrompt string
	Completed  bool
}

// Ingest counts an inbound user message, stores it as an answer when
// onboarding is underway, and classifies it for the caller. The whole
// decision runs in one critical section, so a concurrent reset can
// never land between the count and the answer.
func (r *Registry) Ingest(clientID, answer string) (Intake, Step) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess := r.getOrCreate(clientID)
	sess.MessageCount++

	if sess.MessageCount == 1 {
		return IntakeFirst, Step{NextPrompt: r.questions[0].Prompt}
	}
	if r.complete(sess) {
		return IntakeChat, Step{}
	}

	question := r.questions[sess.NextQuestion]
	sess.Preferences[question.Key] = answer
	sess.NextQuestion++

	step := Step{Key: question.Key, Value: answer}
	if r.complete(sess) {
		step.Completed = true
	} else {
		step.NextPrompt = r.questions[sess.NextQuestion].Prompt
	}
	return IntakeAnswer, step
}

// Preferences returns a copy of the session's collected answers keyed
// by question, with unanswered questions present as empty strings so
// the backend prompt can mark them "not specified".
func (r *Registry) Preferences(clientID string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess := r.getOrCreate(clientID)
	copied := make(map[string]string, len(r.questions))
	for _, q := range r.questions {
		copied[q.Key] = sess.Preferences[q.Key]
	}
	return copied
}

// ConversationID returns the backend conversation handle, empty before
// the first successful turn.
func (r *Registry) ConversationID(clientID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreate(clientID).ConversationID
}

// SetConversationID persists the handle returned by the backend for
// reuse on the session's next turn.
func (r *Registry) SetConversationID(clientID, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getOrCreate(clientID).ConversationID = conversationID
}

// ResetAll rolls every live session back to its initial onboarding
// state. Used by clear_chat, which is a global operation.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, sess := range r.sessions {
		fresh := chat.NewSession(id)
		fresh.ConversationID = sess.ConversationID
		r.sessions[id] = fresh
	}
}

// Snapshot returns a copy of the session for inspection in tests and
// diagnostics.
func (r *Registry) Snapshot(clientID string) (chat.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[clientID]
	if !ok {
		return chat.Session{}, false
	}
	copied := *sess
	copied.Preferences = make(map[string]string, len(sess.Preferences))
	for k, v := range sess.Preferences {
		copied.Preferences[k] = v
	}
	return copied, true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
