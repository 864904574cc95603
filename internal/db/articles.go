package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mrhollen/knowledgebase/internal/models"
)

const articleColumns = `a.id, a.title, a.content, a.summary, a.embedding, a.author_id, a.created_at`

func (s *Store) CreateArticle(ctx context.Context, article models.Article) (*models.Article, error) {
	if article.Title == "" {
		return nil, errors.New("article title cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	article.CreatedAt = now()
	article.Tags = uniqueTags(article.Tags)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := s.rebind(`
			INSERT INTO articles (title, content, summary, embedding, author_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id
		`)
		err := tx.QueryRowContext(ctx, query, article.Title, article.Content, article.Summary,
			article.Embedding, article.AuthorID, article.CreatedAt).Scan(&article.ID)
		if err != nil {
			return fmt.Errorf("failed to insert article: %w", err)
		}

		return s.setTags(ctx, tx, article.ID, article.Tags)
	})
	if err != nil {
		return nil, err
	}

	return &article, nil
}

func (s *Store) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.rebind(`SELECT ` + articleColumns + ` FROM articles a WHERE a.id = ?`)
	article, err := scanArticle(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("article %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve article: %w", err)
	}

	articles := []models.Article{*article}
	if err := s.loadTags(ctx, articles); err != nil {
		return nil, err
	}

	return &articles[0], nil
}

func (s *Store) ListArticles(ctx context.Context, skip, limit int, tags []string) ([]models.Article, error) {
	skip, limit = normalizePaging(skip, limit)

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	var (
		where string
		args  []interface{}
	)
	if tags = uniqueTags(tags); len(tags) > 0 {
		in, inArgs := s.inStrings("t.name", tags)
		where = `WHERE a.id IN (
			SELECT at.article_id FROM article_tags at
			JOIN tags t ON t.id = at.tag_id
			WHERE ` + in + `)`
		args = append(args, inArgs...)
	}
	args = append(args, limit, skip)

	query := s.rebind(`SELECT ` + articleColumns + ` FROM articles a ` + where + `
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ? OFFSET ?`)

	articles, err := s.queryArticles(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if err := s.loadTags(ctx, articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (s *Store) ListCandidates(ctx context.Context, limit int) ([]models.Article, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be greater than zero")
	}

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	query := s.rebind(`SELECT ` + articleColumns + ` FROM articles a
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ?`)

	articles, err := s.queryArticles(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if err := s.loadTags(ctx, articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// UpdateArticle replaces the title, content, summary, embedding and tags of
// an existing article.
func (s *Store) UpdateArticle(ctx context.Context, article models.Article) (*models.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	article.Tags = uniqueTags(article.Tags)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := s.rebind(`
			UPDATE articles SET title = ?, content = ?, summary = ?, embedding = ?
			WHERE id = ?
		`)
		res, err := tx.ExecContext(ctx, query, article.Title, article.Content, article.Summary,
			article.Embedding, article.ID)
		if err != nil {
			return fmt.Errorf("failed to update article: %w", err)
		}
		if err := checkAffected(res, "article", article.ID); err != nil {
			return err
		}

		return s.setTags(ctx, tx, article.ID, article.Tags)
	})
	if err != nil {
		return nil, err
	}

	return s.GetArticle(ctx, article.ID)
}

func (s *Store) UpdateEmbedding(ctx context.Context, id int64, embedding *string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.rebind(`UPDATE articles SET embedding = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, embedding, id)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	return checkAffected(res, "article", id)
}

func (s *Store) DeleteArticle(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM articles WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return checkAffected(res, "article", id)
}

func (s *Store) queryArticles(ctx context.Context, query string, args ...interface{}) ([]models.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	articles := []models.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating through articles: %w", err)
	}

	return articles, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row scanner) (*models.Article, error) {
	var (
		a         models.Article
		summary   sql.NullString
		embedding sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Title, &a.Content, &summary, &embedding, &a.AuthorID, &a.CreatedAt); err != nil {
		return nil, err
	}

	a.Summary = nullableString(summary)
	a.Embedding = nullableString(embedding)
	a.Tags = []string{}
	return &a, nil
}

func (s *Store) setTags(ctx context.Context, tx querier, articleID int64, tags []string) error {
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM article_tags WHERE article_id = ?`), articleID); err != nil {
		return fmt.Errorf("failed to clear article tags: %w", err)
	}

	for _, name := range tags {
		_, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO tags (name) VALUES (?) ON CONFLICT (name) DO NOTHING`), name)
		if err != nil {
			return fmt.Errorf("failed to insert tag %q: %w", name, err)
		}

		var tagID int64
		if err := tx.QueryRowContext(ctx, s.rebind(`SELECT id FROM tags WHERE name = ?`), name).Scan(&tagID); err != nil {
			return fmt.Errorf("failed to look up tag %q: %w", name, err)
		}

		_, err = tx.ExecContext(ctx, s.rebind(`
			INSERT INTO article_tags (article_id, tag_id) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`), articleID, tagID)
		if err != nil {
			return fmt.Errorf("failed to link tag %q: %w", name, err)
		}
	}

	return nil
}

func (s *Store) loadTags(ctx context.Context, articles []models.Article) error {
	if len(articles) == 0 {
		return nil
	}

	ids := make([]int64, len(articles))
	index := make(map[int64]int, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
		index[a.ID] = i
	}

	in, args := s.inInt64s("at.article_id", ids)
	query := s.rebind(`
		SELECT at.article_id, t.name FROM article_tags at
		JOIN tags t ON t.id = at.tag_id
		WHERE ` + in + `
		ORDER BY t.name
	`)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			articleID int64
			name      string
		)
		if err := rows.Scan(&articleID, &name); err != nil {
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		i := index[articleID]
		articles[i].Tags = append(articles[i].Tags, name)
	}

	return rows.Err()
}

func uniqueTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := []string{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
