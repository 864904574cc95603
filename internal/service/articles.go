package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mrhollen/knowledgebase/internal/auth"
	"github.com/mrhollen/knowledgebase/internal/db"
	"github.com/mrhollen/knowledgebase/internal/llm"
	"github.com/mrhollen/knowledgebase/internal/models"
	"github.com/mrhollen/knowledgebase/internal/rag"
)

type ArticleInput struct {
	Title   string
	Content string
	Summary *string
	Tags    []string
}

func (in ArticleInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	return nil
}

// ArticleService keeps each article's stored embedding in step with its content.
type ArticleService struct {
	store    db.ArticleStore
	embedder llm.Embedder
	searcher rag.Searcher
}

func NewArticleService(store db.ArticleStore, embedder llm.Embedder, searcher rag.Searcher) *ArticleService {
	return &ArticleService{store: store, embedder: embedder, searcher: searcher}
}

// Create embeds the content and stores the article. If the embedding provider
// fails nothing is stored.
func (s *ArticleService) Create(ctx context.Context, author *models.User, in ArticleInput) (*models.Article, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	embedding, err := s.embed(ctx, in.Content)
	if err != nil {
		return nil, err
	}

	return s.store.CreateArticle(ctx, in.article(author.ID, embedding))
}

// Import stores the article even when embedding fails, leaving it unindexed
// until the next reindex. indexed reports whether an embedding was stored.
func (s *ArticleService) Import(ctx context.Context, authorID int64, in ArticleInput) (article *models.Article, indexed bool, err error) {
	if err := in.validate(); err != nil {
		return nil, false, err
	}

	embedding, err := s.embed(ctx, in.Content)
	if err != nil {
		if !errors.Is(err, rag.ErrEmbeddingUnavailable) {
			return nil, false, err
		}
		log.Printf("storing %q without embedding: %v", in.Title, err)
	}

	article, err = s.store.CreateArticle(ctx, in.article(authorID, embedding))
	if err != nil {
		return nil, false, err
	}
	return article, embedding != nil, nil
}

func (s *ArticleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	return s.store.GetArticle(ctx, id)
}

func (s *ArticleService) List(ctx context.Context, skip, limit int, tags []string) ([]models.Article, error) {
	return s.store.ListArticles(ctx, skip, limit, tags)
}

// Update replaces the article and recomputes its embedding. Only the author or
// an admin may update.
func (s *ArticleService) Update(ctx context.Context, user *models.User, id int64, in ArticleInput) (*models.Article, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanModify(user, existing.AuthorID) {
		return nil, fmt.Errorf("update article %d: %w", id, auth.ErrForbidden)
	}

	embedding, err := s.embed(ctx, in.Content)
	if err != nil {
		return nil, err
	}

	updated := in.article(existing.AuthorID, embedding)
	updated.ID = id
	return s.store.UpdateArticle(ctx, updated)
}

func (s *ArticleService) Delete(ctx context.Context, user *models.User, id int64) error {
	existing, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CanModify(user, existing.AuthorID) {
		return fmt.Errorf("delete article %d: %w", id, auth.ErrForbidden)
	}

	return s.store.DeleteArticle(ctx, id)
}

func (s *ArticleService) Search(ctx context.Context, query string, topK int) ([]rag.ScoredArticle, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be greater than zero", ErrInvalidInput)
	}
	return s.searcher.Search(ctx, query, topK)
}

type ReindexReport struct {
	Total   int
	Indexed int
	Failed  map[int64]error
}

// Reindex recomputes stored embeddings, for every article or only for those
// never indexed. A failed article is recorded and the run continues.
// progress, if set, is called after each article with the running count.
func (s *ArticleService) Reindex(ctx context.Context, onlyMissing bool, progress func(done, total int)) (*ReindexReport, error) {
	const pageSize = 100

	var pending []models.Article
	for skip := 0; ; skip += pageSize {
		page, err := s.store.ListArticles(ctx, skip, pageSize, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list articles: %w", err)
		}
		for _, a := range page {
			if onlyMissing && a.Embedding != nil {
				continue
			}
			pending = append(pending, a)
		}
		if len(page) < pageSize {
			break
		}
	}

	report := &ReindexReport{Total: len(pending), Failed: map[int64]error{}}
	for i, a := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		embedding, err := s.embed(ctx, a.Content)
		if err == nil {
			err = s.store.UpdateEmbedding(ctx, a.ID, embedding)
		}
		if err != nil {
			log.Printf("failed to reindex article %d: %v", a.ID, err)
			report.Failed[a.ID] = err
		} else {
			report.Indexed++
		}

		if progress != nil {
			progress(i+1, report.Total)
		}
	}

	return report, nil
}

func (s *ArticleService) embed(ctx context.Context, text string) (*string, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", rag.ErrEmbeddingUnavailable, err)
	}

	encoded, err := rag.EncodeVector(vec)
	if err != nil {
		return nil, err
	}
	return &encoded, nil
}

func (in ArticleInput) article(authorID int64, embedding *string) models.Article {
	return models.Article{
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		Summary:   in.Summary,
		Embedding: embedding,
		AuthorID:  authorID,
		Tags:      in.Tags,
	}
}
