package agent

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/lichenway/newsdesk/backend/internal/config"
)

// Turn is the outcome of one conversational exchange. ConversationID
// is the handle the caller must carry into the next SendTurn for the
// same session.
type Turn struct {
	Reply          string
	ConversationID string
}

// Turner is the boundary the relay core talks to. Implementations own
// everything behind the reply: model calls, prompting, history.
type Turner interface {
	SendTurn(ctx context.Context, conversationID, userText string, preferences map[string]string) (Turn, error)
}

// Service answers user turns through an eino chat chain, keeping a
// rolling per-conversation history in memory.
type Service struct {
	chain        compose.Runnable[map[string]any, *schema.Message]
	historyLimit int

	mu      sync.Mutex
	history map[string][]*schema.Message
}

// NewService compiles the prompt+model chain from configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chain:        runnable,
		historyLimit: cfg.HistoryLimit,
		history:      make(map[string][]*schema.Message),
	}, nil
}

// SendTurn runs one exchange. An empty conversationID starts a new
// conversation; the returned handle identifies it from then on.
func (s *Service) SendTurn(ctx context.Context, conversationID, userText string, preferences map[string]string) (Turn, error) {
	if conversationID == "" {
		conversationID = uuid.NewString()
		log.Printf("[agent] created conversation %s", conversationID)
	}

	input := map[string]any{
		"system":  BuildSystemPrompt(preferences),
		"history": s.historyFor(conversationID),
		"query":   userText,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return Turn{}, fmt.Errorf("failed to run agent chain: %w", err)
	}

	s.appendHistory(conversationID,
		schema.UserMessage(userText),
		schema.AssistantMessage(response.Content, nil),
	)

	log.Printf("[agent] generated reply for conversation=%s length=%d", conversationID, len(response.Content))
	return Turn{Reply: response.Content, ConversationID: conversationID}, nil
}

func (s *Service) historyFor(conversationID string) []*schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := s.history[conversationID]
	if len(messages) == 0 {
		return nil
	}
	copied := make([]*schema.Message, len(messages))
	copy(copied, messages)
	return copied
}

func (s *Service) appendHistory(conversationID string, messages ...*schema.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := append(s.history[conversationID], messages...)
	if limit := s.historyLimit; limit > 0 && len(stored) > limit {
		stored = stored[len(stored)-limit:]
	}
	s.history[conversationID] = stored
}
