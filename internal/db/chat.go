package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mrhollen/knowledgebase/internal/models"
)

func (s *Store) CreateSession(ctx context.Context, userID int64, title *string) (*models.ChatSession, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	session := models.ChatSession{UserID: userID, Title: title, CreatedAt: now()}

	query := s.rebind(`
		INSERT INTO chat_sessions (user_id, title, created_at)
		VALUES (?, ?, ?)
		RETURNING id
	`)
	if err := s.db.QueryRowContext(ctx, query, userID, title, session.CreatedAt).Scan(&session.ID); err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}

	return &session, nil
}

func (s *Store) GetSession(ctx context.Context, id int64) (*models.ChatSession, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.rebind(`SELECT id, user_id, title, created_at FROM chat_sessions WHERE id = ?`)

	var (
		session models.ChatSession
		title   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&session.ID, &session.UserID, &title, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chat session %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve chat session: %w", err)
	}

	session.Title = nullableString(title)
	return &session, nil
}

func (s *Store) ListUserSessions(ctx context.Context, userID int64) ([]models.ChatSession, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	query := s.rebind(`
		SELECT id, user_id, title, created_at FROM chat_sessions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`)
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.ChatSession{}
	for rows.Next() {
		var (
			session models.ChatSession
			title   sql.NullString
		)
		if err := rows.Scan(&session.ID, &session.UserID, &title, &session.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat session: %w", err)
		}
		session.Title = nullableString(title)
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// DeleteSession removes the session and, through the foreign key, its messages.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM chat_sessions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	return checkAffected(res, "chat session", id)
}

func (s *Store) AppendMessage(ctx context.Context, sessionID int64, role models.Role, content string, sources *string) (*models.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	msg := models.ChatMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Sources:   sources,
		CreatedAt: now(),
	}

	query := s.rebind(`
		INSERT INTO chat_messages (session_id, role, content, sources, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := s.db.QueryRowContext(ctx, query, sessionID, string(role), content, sources, msg.CreatedAt).Scan(&msg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to append message to session %d: %w", sessionID, err)
	}

	return &msg, nil
}

func (s *Store) GetMessages(ctx context.Context, sessionID int64) ([]models.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	query := s.rebind(`
		SELECT id, session_id, role, content, sources, created_at FROM chat_messages
		WHERE session_id = ?
		ORDER BY created_at, id
	`)
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var (
			msg     models.ChatMessage
			role    string
			sources sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &sources, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = models.Role(role)
		msg.Sources = nullableString(sources)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating through messages: %w", err)
	}

	return messages, nil
}
