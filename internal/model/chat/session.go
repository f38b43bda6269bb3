package chat

// Session captures the transient per-connection state: onboarding
// progress, collected preferences and the backend conversation handle.
// Sessions live exactly as long as their websocket connection.
type Session struct {
	ClientID       string
	ConversationID string
	Preferences    map[string]string
	NextQuestion   int
	MessageCount   int
}

// NewSession returns a fresh session with no answers collected.
// Completion is derived from NextQuestion against the questionnaire
// length, so there is no separate flag to fall out of sync.
func NewSession(clientID string) *Session {
	return &Session{
		ClientID:    clientID,
		Preferences: make(map[string]string),
	}
}
