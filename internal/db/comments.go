package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mrhollen/knowledgebase/internal/models"
)

func (s *Store) CreateComment(ctx context.Context, comment models.Comment) (*models.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	comment.CreatedAt = now()

	query := s.rebind(`
		INSERT INTO comments (article_id, author_id, content, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	err := s.db.QueryRowContext(ctx, query, comment.ArticleID, comment.AuthorID, comment.Content,
		comment.CreatedAt).Scan(&comment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	return &comment, nil
}

func (s *Store) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.rebind(`SELECT id, article_id, author_id, content, created_at FROM comments WHERE id = ?`)

	var c models.Comment
	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.ArticleID, &c.AuthorID, &c.Content, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve comment: %w", err)
	}
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, articleID int64, skip, limit int) ([]models.Comment, error) {
	skip, limit = normalizePaging(skip, limit)

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	query := s.rebind(`
		SELECT id, article_id, author_id, content, created_at FROM comments
		WHERE article_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`)
	rows, err := s.db.QueryContext(ctx, query, articleID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

func (s *Store) UpdateComment(ctx context.Context, id int64, content string) (*models.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE comments SET content = ? WHERE id = ?`), content, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	if err := checkAffected(res, "comment", id); err != nil {
		return nil, err
	}

	return s.GetComment(ctx, id)
}

// DeleteComment removes the comment and its replies.
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM comments WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return checkAffected(res, "comment", id)
}

func (s *Store) CreateReply(ctx context.Context, reply models.CommentReply) (*models.CommentReply, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	reply.CreatedAt = now()

	query := s.rebind(`
		INSERT INTO comment_replies (comment_id, author_id, content, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	err := s.db.QueryRowContext(ctx, query, reply.CommentID, reply.AuthorID, reply.Content,
		reply.CreatedAt).Scan(&reply.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reply: %w", err)
	}

	return &reply, nil
}

func (s *Store) GetReply(ctx context.Context, id int64) (*models.CommentReply, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.rebind(`SELECT id, comment_id, author_id, content, created_at FROM comment_replies WHERE id = ?`)

	var r models.CommentReply
	err := s.db.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.CommentID, &r.AuthorID, &r.Content, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reply %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve reply: %w", err)
	}
	return &r, nil
}

func (s *Store) ListReplies(ctx context.Context, commentID int64, skip, limit int) ([]models.CommentReply, error) {
	skip, limit = normalizePaging(skip, limit)

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	query := s.rebind(`
		SELECT id, comment_id, author_id, content, created_at FROM comment_replies
		WHERE comment_id = ?
		ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`)
	rows, err := s.db.QueryContext(ctx, query, commentID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	defer rows.Close()

	replies := []models.CommentReply{}
	for rows.Next() {
		var r models.CommentReply
		if err := rows.Scan(&r.ID, &r.CommentID, &r.AuthorID, &r.Content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		replies = append(replies, r)
	}

	return replies, rows.Err()
}

func (s *Store) UpdateReply(ctx context.Context, id int64, content string) (*models.CommentReply, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE comment_replies SET content = ? WHERE id = ?`), content, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update reply: %w", err)
	}
	if err := checkAffected(res, "reply", id); err != nil {
		return nil, err
	}

	return s.GetReply(ctx, id)
}

func (s *Store) DeleteReply(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM comment_replies WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete reply: %w", err)
	}
	return checkAffected(res, "reply", id)
}
