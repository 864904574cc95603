package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrhollen/knowledgebase/internal/auth"
	"github.com/mrhollen/knowledgebase/internal/db"
	"github.com/mrhollen/knowledgebase/internal/models"
)

type messageSender interface {
	SendMessage(ctx context.Context, sessionID int64, text string) (*models.ChatMessage, []int64, error)
}

// ChatSessionService enforces that only a session's owner reads or writes it.
type ChatSessionService struct {
	store  db.ChatStore
	sender messageSender
}

func NewChatSessionService(store db.ChatStore, sender messageSender) *ChatSessionService {
	return &ChatSessionService{store: store, sender: sender}
}

func (s *ChatSessionService) Create(ctx context.Context, user *models.User, title *string) (*models.ChatSession, error) {
	return s.store.CreateSession(ctx, user.ID, title)
}

func (s *ChatSessionService) List(ctx context.Context, user *models.User) ([]models.ChatSession, error) {
	return s.store.ListUserSessions(ctx, user.ID)
}

func (s *ChatSessionService) Get(ctx context.Context, user *models.User, id int64) (*models.ChatSession, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != user.ID {
		return nil, fmt.Errorf("chat session %d: %w", id, auth.ErrForbidden)
	}
	return session, nil
}

func (s *ChatSessionService) Delete(ctx context.Context, user *models.User, id int64) error {
	if _, err := s.Get(ctx, user, id); err != nil {
		return err
	}
	return s.store.DeleteSession(ctx, id)
}

func (s *ChatSessionService) Messages(ctx context.Context, user *models.User, id int64) ([]models.ChatMessage, error) {
	if _, err := s.Get(ctx, user, id); err != nil {
		return nil, err
	}
	return s.store.GetMessages(ctx, id)
}

func (s *ChatSessionService) Send(ctx context.Context, user *models.User, id int64, text string) (*models.ChatMessage, []int64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if _, err := s.Get(ctx, user, id); err != nil {
		return nil, nil, err
	}
	return s.sender.SendMessage(ctx, id, text)
}
