package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mrhollen/knowledgebase/internal/models"
)

func newTestChat(gen *fakeGenerator, embedder *fakeEmbedder, articles []models.Article) (*ChatService, *fakeMessages) {
	messages := &fakeMessages{}
	retriever := NewRetriever(&fakeArticles{articles: articles}, embedder, 0)
	return NewChatService(messages, retriever, gen, DefaultChatOptions()), messages
}

func TestSendMessage_StoresReplyWithSources(t *testing.T) {
	articles := []models.Article{
		indexedArticle(10, "close", []float32{1, 0.1}),
		indexedArticle(11, "exact", []float32{1, 0}),
		indexedArticle(12, "far", []float32{-1, 0}),
		indexedArticle(13, "orthogonal", []float32{0, 1}),
		indexedArticle(14, "pending", nil),
	}
	gen := &fakeGenerator{answer: "Use article 2."}
	chat, messages := newTestChat(gen, &fakeEmbedder{}, articles)

	reply, sources, err := chat.SendMessage(context.Background(), 1, "how?")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	wantSources := []int64{11, 10, 13}
	if len(sources) != len(wantSources) {
		t.Fatalf("expected sources %v, got %v", wantSources, sources)
	}
	for i := range wantSources {
		if sources[i] != wantSources[i] {
			t.Fatalf("expected sources %v, got %v", wantSources, sources)
		}
	}

	if reply.Role != models.RoleAssistant || reply.Content != "Use article 2." {
		t.Errorf("unexpected reply: %+v", reply)
	}
	stored, err := reply.SourceIDs()
	if err != nil {
		t.Fatalf("stored sources undecodable: %v", err)
	}
	if len(stored) != 3 || stored[0] != 11 {
		t.Errorf("stored sources differ from returned: %v", stored)
	}

	if messages.count(1) != 2 {
		t.Errorf("expected 2 messages, got %d", messages.count(1))
	}

	if gen.temperature != 0.7 || gen.maxTokens != 500 {
		t.Errorf("unexpected sampling params: %v %d", gen.temperature, gen.maxTokens)
	}
	if !strings.HasPrefix(gen.userPrompt, "Context from knowledge base:\nArticle 1 (ID: 11, Title: exact):") {
		t.Errorf("unexpected user prompt: %q", gen.userPrompt)
	}
	if !strings.HasSuffix(gen.userPrompt, "\n\nUser question: how?") {
		t.Errorf("user prompt should end with the question: %q", gen.userPrompt)
	}
	if !strings.Contains(gen.systemPrompt, "only the context") {
		t.Errorf("system prompt should restrict answers to context: %q", gen.systemPrompt)
	}
}

func TestSendMessage_HistoryIncludesNewQuestion(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	chat, messages := newTestChat(gen, &fakeEmbedder{}, nil)

	ctx := context.Background()
	messages.AppendMessage(ctx, 1, models.RoleUser, "first", nil)
	messages.AppendMessage(ctx, 1, models.RoleAssistant, "first answer", nil)
	messages.AppendMessage(ctx, 1, models.RoleUser, "second", nil)

	if _, _, err := chat.SendMessage(ctx, 1, "third"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if len(gen.history) != 4 {
		t.Fatalf("expected 3 prior turns plus the new question, got %d", len(gen.history))
	}
	want := []string{"first", "first answer", "second", "third"}
	for i, w := range want {
		if gen.history[i].Content != w {
			t.Errorf("turn %d: expected %q, got %q", i, w, gen.history[i].Content)
		}
	}
}

func TestSendMessage_EmptyRetrievalStoresEmptySources(t *testing.T) {
	gen := &fakeGenerator{answer: "I could not find anything."}
	chat, _ := newTestChat(gen, &fakeEmbedder{}, nil)

	reply, sources, err := chat.SendMessage(context.Background(), 1, "anything?")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if len(sources) != 0 {
		t.Errorf("expected no sources, got %v", sources)
	}
	if reply.Sources == nil || *reply.Sources != "[]" {
		t.Errorf("expected stored sources \"[]\", got %v", reply.Sources)
	}
}

func TestSendMessage_GenerationFailureKeepsUserMessage(t *testing.T) {
	gen := &fakeGenerator{err: errProvider}
	chat, messages := newTestChat(gen, &fakeEmbedder{}, []models.Article{indexedArticle(1, "a", []float32{1, 0})})

	messages.AppendMessage(context.Background(), 1, models.RoleUser, "earlier", nil)
	before := messages.count(1)

	_, _, err := chat.SendMessage(context.Background(), 1, "question")
	if !errors.Is(err, ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
	if errors.Is(err, ErrEmbeddingUnavailable) {
		t.Error("generation failure must not look like a retrieval failure")
	}

	if got := messages.count(1); got != before+1 {
		t.Errorf("expected exactly one new message, got %d", got-before)
	}
	msgs, _ := messages.GetMessages(context.Background(), 1)
	last := msgs[len(msgs)-1]
	if last.Role != models.RoleUser || last.Content != "question" || last.Sources != nil {
		t.Errorf("trailing message should be the unanswered question, got %+v", last)
	}
}

func TestSendMessage_RetrievalFailure(t *testing.T) {
	gen := &fakeGenerator{answer: "unused"}
	chat, messages := newTestChat(gen, &fakeEmbedder{err: errProvider}, nil)

	_, _, err := chat.SendMessage(context.Background(), 1, "question")
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if errors.Is(err, ErrGenerationUnavailable) {
		t.Error("retrieval failure must not look like a generation failure")
	}

	if gen.calls != 0 {
		t.Errorf("generator should not be called, got %d calls", gen.calls)
	}
	if messages.count(1) != 1 {
		t.Errorf("user message should be kept, got %d messages", messages.count(1))
	}
}

func TestSendMessage_StoreFailure(t *testing.T) {
	gen := &fakeGenerator{answer: "unused"}
	messages := &fakeMessages{appendErr: errors.New("disk full")}
	chat := NewChatService(messages, NewRetriever(&fakeArticles{}, &fakeEmbedder{}, 0), gen, ChatOptions{})

	if _, _, err := chat.SendMessage(context.Background(), 1, "question"); err == nil {
		t.Fatal("expected store error")
	}
	if gen.calls != 0 {
		t.Error("nothing should run after the user message fails to store")
	}

	if _, _, err := chat.SendMessage(context.Background(), 1, ""); err == nil {
		t.Error("should reject an empty message")
	}
}

func TestSendMessage_SerializesPerSession(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	chat, messages := newTestChat(gen, &fakeEmbedder{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := chat.SendMessage(context.Background(), 1, "q"); err != nil {
				t.Errorf("send failed: %v", err)
			}
		}()
	}
	wg.Wait()

	msgs, _ := messages.GetMessages(context.Background(), 1)
	if len(msgs) != 16 {
		t.Fatalf("expected 16 messages, got %d", len(msgs))
	}
	for i := 0; i < len(msgs); i += 2 {
		if msgs[i].Role != models.RoleUser || msgs[i+1].Role != models.RoleAssistant {
			t.Fatalf("turns interleaved at %d: %s then %s", i, msgs[i].Role, msgs[i+1].Role)
		}
	}
}

func TestSendMessage_ReleasesSessionLocks(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	chat, _ := newTestChat(gen, &fakeEmbedder{}, nil)

	var wg sync.WaitGroup
	for session := int64(1); session <= 50; session++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, _, err := chat.SendMessage(context.Background(), id, "q"); err != nil {
				t.Errorf("send failed: %v", err)
			}
		}(session)
	}
	wg.Wait()

	if n := len(chat.locks); n != 0 {
		t.Errorf("expected no session locks after all turns finished, got %d", n)
	}

	gen.err = errors.New("model down")
	if _, _, err := chat.SendMessage(context.Background(), 99, "q"); err == nil {
		t.Fatal("expected generation error")
	}
	if n := len(chat.locks); n != 0 {
		t.Errorf("a failed turn should release its lock, got %d held", n)
	}
}
