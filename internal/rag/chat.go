package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/mrhollen/knowledgebase/internal/llm"
	"github.com/mrhollen/knowledgebase/internal/models"
)

const systemPrompt = `You are a helpful assistant for a knowledge base. Answer the user's question using only the context provided from the knowledge base articles.
If the context does not contain enough information to answer, say so explicitly instead of guessing.
When you use information from an article, cite it by its article number and title.`

type MessageStore interface {
	AppendMessage(ctx context.Context, sessionID int64, role models.Role, content string, sources *string) (*models.ChatMessage, error)
	GetMessages(ctx context.Context, sessionID int64) ([]models.ChatMessage, error)
}

type ChatOptions struct {
	TopK         int
	HistoryTurns int
	Temperature  float32
	MaxTokens    int
}

func DefaultChatOptions() ChatOptions {
	return ChatOptions{
		TopK:         3,
		HistoryTurns: DefaultHistoryTurns,
		Temperature:  0.7,
		MaxTokens:    500,
	}
}

// ChatService runs one retrieval-grounded chat turn at a time per session.
type ChatService struct {
	messages  MessageStore
	searcher  Searcher
	generator llm.Generator
	opts      ChatOptions

	mu    sync.Mutex
	locks map[int64]*sessionLock
}

// sessionLock is held for one turn. The entry is removed once no turn holds
// or waits on it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewChatService(messages MessageStore, searcher Searcher, generator llm.Generator, opts ChatOptions) *ChatService {
	defaults := DefaultChatOptions()
	if opts.TopK <= 0 {
		opts.TopK = defaults.TopK
	}
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = defaults.HistoryTurns
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaults.MaxTokens
	}

	return &ChatService{
		messages:  messages,
		searcher:  searcher,
		generator: generator,
		opts:      opts,
		locks:     make(map[int64]*sessionLock),
	}
}

// SendMessage stores the user's message, retrieves context for it, asks the
// generator for a reply and stores that reply with its source article ids.
//
// The user message is kept when a later step fails. Retrieval failures wrap
// ErrEmbeddingUnavailable; generation failures wrap ErrGenerationUnavailable.
// Nothing is retried.
func (s *ChatService) SendMessage(ctx context.Context, sessionID int64, text string) (*models.ChatMessage, []int64, error) {
	if text == "" {
		return nil, nil, errors.New("message cannot be empty")
	}

	unlock := s.lock(sessionID)
	defer unlock()

	if _, err := s.messages.AppendMessage(ctx, sessionID, models.RoleUser, text, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to store user message: %w", err)
	}

	results, err := s.searcher.Search(ctx, text, s.opts.TopK)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieval failed for session %d: %w", sessionID, err)
	}

	contextText := BuildContext(results)
	sourceIDs := SourceIDs(results)

	// Re-read after the append, so the new question is the last history turn.
	messages, err := s.messages.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session history: %w", err)
	}
	history := BuildHistory(messages, s.opts.HistoryTurns)

	userPrompt := fmt.Sprintf("Context from knowledge base:\n%s\n\nUser question: %s", contextText, text)

	answer, err := s.generator.Complete(ctx, systemPrompt, history, userPrompt, s.opts.Temperature, s.opts.MaxTokens)
	if err != nil {
		log.Printf("generation failed for session %d: %v", sessionID, err)
		return nil, nil, fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
	}

	sources, err := models.EncodeSources(sourceIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode sources: %w", err)
	}

	reply, err := s.messages.AppendMessage(ctx, sessionID, models.RoleAssistant, answer, &sources)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	return reply, sourceIDs, nil
}

func (s *ChatService) lock(sessionID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}
