package rag

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mrhollen/knowledgebase/internal/llm"
	"github.com/mrhollen/knowledgebase/internal/models"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	v, ok := e.vectors[text]
	if !ok {
		return []float32{1, 0}, nil
	}
	return v, nil
}

type fakeArticles struct {
	articles  []models.Article
	lastLimit int
}

func (f *fakeArticles) ListCandidates(ctx context.Context, limit int) ([]models.Article, error) {
	f.lastLimit = limit
	if len(f.articles) > limit {
		return f.articles[:limit], nil
	}
	return f.articles, nil
}

func indexedArticle(id int64, title string, vec []float32) models.Article {
	a := models.Article{ID: id, Title: title, Content: title + " body"}
	if vec != nil {
		text, err := EncodeVector(vec)
		if err != nil {
			panic(err)
		}
		a.Embedding = &text
	}
	return a
}

type fakeMessages struct {
	mu        sync.Mutex
	messages  []models.ChatMessage
	nextID    int64
	appendErr error
}

func (f *fakeMessages) AppendMessage(ctx context.Context, sessionID int64, role models.Role, content string, sources *string) (*models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.nextID++
	m := models.ChatMessage{
		ID:        f.nextID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Sources:   sources,
		CreatedAt: time.Now(),
	}
	f.messages = append(f.messages, m)
	return &m, nil
}

func (f *fakeMessages) GetMessages(ctx context.Context, sessionID int64) ([]models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.ChatMessage
	for _, m := range f.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) count(sessionID int64) int {
	msgs, _ := f.GetMessages(context.Background(), sessionID)
	return len(msgs)
}

type fakeGenerator struct {
	mu     sync.Mutex
	answer string
	err    error

	calls        int
	systemPrompt string
	history      []llm.Turn
	userPrompt   string
	temperature  float32
	maxTokens    int
}

func (g *fakeGenerator) Complete(ctx context.Context, systemPrompt string, history []llm.Turn, userPrompt string, temperature float32, maxTokens int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	g.systemPrompt = systemPrompt
	g.history = history
	g.userPrompt = userPrompt
	g.temperature = temperature
	g.maxTokens = maxTokens
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

var errProvider = errors.New("provider down")
