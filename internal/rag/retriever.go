package rag

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mrhollen/knowledgebase/internal/llm"
	"github.com/mrhollen/knowledgebase/internal/models"
)

// DefaultCandidateLimit caps how many of the most recent articles a search
// scores. Articles older than the newest DefaultCandidateLimit are never
// considered; this is a brute-force scan, not an index.
const DefaultCandidateLimit = 1000

type ArticleSource interface {
	ListCandidates(ctx context.Context, limit int) ([]models.Article, error)
}

type ScoredArticle struct {
	Article models.Article `json:"article"`
	Score   float64        `json:"score"`
}

// Searcher is the retrieval contract the chat orchestrator depends on.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]ScoredArticle, error)
}

type Retriever struct {
	articles       ArticleSource
	embedder       llm.Embedder
	candidateLimit int
}

func NewRetriever(articles ArticleSource, embedder llm.Embedder, candidateLimit int) *Retriever {
	if candidateLimit <= 0 {
		candidateLimit = DefaultCandidateLimit
	}

	return &Retriever{
		articles:       articles,
		embedder:       embedder,
		candidateLimit: candidateLimit,
	}
}

// Search ranks the candidate articles by cosine similarity to query and
// returns at most topK of them. Articles that were never indexed are skipped.
// Equal scores keep the storage fetch order.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]ScoredArticle, error) {
	if topK <= 0 {
		return nil, errors.New("topK must be greater than zero")
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}

	candidates, err := r.articles.ListCandidates(ctx, r.candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate articles: %w", err)
	}

	results := make([]ScoredArticle, 0, len(candidates))
	for _, article := range candidates {
		if article.Embedding == nil {
			continue
		}

		vec, err := DecodeVector(*article.Embedding)
		if err != nil {
			return nil, fmt.Errorf("article %d: %w", article.ID, err)
		}

		score, err := Cosine(queryVec, vec)
		if err != nil {
			return nil, fmt.Errorf("article %d: %w", article.ID, err)
		}

		results = append(results, ScoredArticle{Article: article, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// SourceIDs projects ranked results onto their article ids, keeping rank order.
func SourceIDs(results []ScoredArticle) []int64 {
	ids := make([]int64, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Article.ID)
	}
	return ids
}
