package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrhollen/knowledgebase/internal/auth"
	"github.com/mrhollen/knowledgebase/internal/db"
	"github.com/mrhollen/knowledgebase/internal/models"
)

type CommentService struct {
	comments db.CommentStore
	articles db.ArticleStore
}

func NewCommentService(comments db.CommentStore, articles db.ArticleStore) *CommentService {
	return &CommentService{comments: comments, articles: articles}
}

func (s *CommentService) Create(ctx context.Context, author *models.User, articleID int64, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if _, err := s.articles.GetArticle(ctx, articleID); err != nil {
		return nil, err
	}

	return s.comments.CreateComment(ctx, models.Comment{
		ArticleID: articleID,
		AuthorID:  author.ID,
		Content:   content,
	})
}

func (s *CommentService) Get(ctx context.Context, id int64) (*models.Comment, error) {
	return s.comments.GetComment(ctx, id)
}

func (s *CommentService) ListForArticle(ctx context.Context, articleID int64, skip, limit int) ([]models.Comment, error) {
	if _, err := s.articles.GetArticle(ctx, articleID); err != nil {
		return nil, err
	}
	return s.comments.ListComments(ctx, articleID, skip, limit)
}

func (s *CommentService) Update(ctx context.Context, user *models.User, id int64, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	existing, err := s.comments.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanModify(user, existing.AuthorID) {
		return nil, fmt.Errorf("update comment %d: %w", id, auth.ErrForbidden)
	}

	return s.comments.UpdateComment(ctx, id, content)
}

func (s *CommentService) Delete(ctx context.Context, user *models.User, id int64) error {
	existing, err := s.comments.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CanModify(user, existing.AuthorID) {
		return fmt.Errorf("delete comment %d: %w", id, auth.ErrForbidden)
	}

	return s.comments.DeleteComment(ctx, id)
}

func (s *CommentService) CreateReply(ctx context.Context, author *models.User, commentID int64, content string) (*models.CommentReply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if _, err := s.comments.GetComment(ctx, commentID); err != nil {
		return nil, err
	}

	return s.comments.CreateReply(ctx, models.CommentReply{
		CommentID: commentID,
		AuthorID:  author.ID,
		Content:   content,
	})
}

func (s *CommentService) GetReply(ctx context.Context, id int64) (*models.CommentReply, error) {
	return s.comments.GetReply(ctx, id)
}

func (s *CommentService) ListReplies(ctx context.Context, commentID int64, skip, limit int) ([]models.CommentReply, error) {
	if _, err := s.comments.GetComment(ctx, commentID); err != nil {
		return nil, err
	}
	return s.comments.ListReplies(ctx, commentID, skip, limit)
}

func (s *CommentService) UpdateReply(ctx context.Context, user *models.User, id int64, content string) (*models.CommentReply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	existing, err := s.comments.GetReply(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanModify(user, existing.AuthorID) {
		return nil, fmt.Errorf("update reply %d: %w", id, auth.ErrForbidden)
	}

	return s.comments.UpdateReply(ctx, id, content)
}

func (s *CommentService) DeleteReply(ctx context.Context, user *models.User, id int64) error {
	existing, err := s.comments.GetReply(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CanModify(user, existing.AuthorID) {
		return fmt.Errorf("delete reply %d: %w", id, auth.ErrForbidden)
	}

	return s.comments.DeleteReply(ctx, id)
}
