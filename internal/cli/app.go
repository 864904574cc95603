package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mrhollen/knowledgebase/internal/config"
	"github.com/mrhollen/knowledgebase/internal/db"
	"github.com/mrhollen/knowledgebase/internal/llm"
	"github.com/mrhollen/knowledgebase/internal/rag"
	"github.com/mrhollen/knowledgebase/internal/service"
)

// app holds the components shared by every command.
type app struct {
	cfg       *config.Config
	store     *db.Store
	client    *llm.OpenAIClient
	cache     *llm.CachedEmbedder
	retriever *rag.Retriever
	chat      *rag.ChatService
	articles  *service.ArticleService
}

func newApp(cfg *config.Config) (*app, error) {
	store, err := db.Open(cfg.Database.Driver, cfg.Database.DSN, db.PoolOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		Provider:       cfg.LLM.Provider,
		BaseURL:        cfg.LLM.BaseURL,
		APIVersion:     cfg.LLM.APIVersion,
		APIKey:         cfg.LLM.APIKey,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		ChatModel:      cfg.LLM.ChatModel,
		Timeout:        cfg.LLM.Timeout,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}

	a := &app{cfg: cfg, store: store, client: client}

	var embedder llm.Embedder = client
	if cfg.EmbeddingCache.Path != "" {
		a.cache, err = llm.NewCachedEmbedder(client, cfg.EmbeddingCache.Path, client.EmbeddingModel())
		if err != nil {
			store.Close()
			return nil, err
		}
		embedder = a.cache
		log.Printf("embedding cache enabled at %s", cfg.EmbeddingCache.Path)
	}

	a.retriever = rag.NewRetriever(store, embedder, cfg.Retrieval.CandidateLimit)
	a.chat = rag.NewChatService(store, a.retriever, client, rag.ChatOptions{
		TopK:         cfg.Chat.TopK,
		HistoryTurns: cfg.Chat.HistoryTurns,
		Temperature:  cfg.Chat.Temperature,
		MaxTokens:    cfg.Chat.MaxTokens,
	})
	a.articles = service.NewArticleService(store, embedder, a.retriever)

	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}

// authorID resolves the user that imported articles are attributed to.
func (a *app) authorID(ctx context.Context, username string) (int64, error) {
	if username == "" {
		username = a.cfg.Importer.Author
	}
	if username == "" {
		return 0, errors.New("an author is required, pass --author or set importer.author")
	}

	user, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return 0, fmt.Errorf("user %q does not exist", username)
		}
		return 0, err
	}
	return user.ID, nil
}
