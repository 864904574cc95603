package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleModerator UserRole = "moderator"
	UserRoleUser      UserRole = "user"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleModerator, UserRoleUser:
		return true
	default:
		return false
	}
}

// Article is a knowledge base entry. Embedding holds the serialized vector
// computed from Content at the last create/update; nil means never indexed.
type Article struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   *string   `json:"summary,omitempty"`
	Embedding *string   `json:"-"`
	AuthorID  int64     `json:"author_id"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        int64     `json:"id"`
	ArticleID int64     `json:"article_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentReply struct {
	ID        int64     `json:"id"`
	CommentID int64     `json:"comment_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FullName       *string   `json:"full_name,omitempty"`
	HashedPassword string    `json:"-"`
	Role           UserRole  `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserSession is a cookie login session, not a chat session.
type UserSession struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s UserSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

type ChatSession struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     *string   `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is append-only. Sources is the JSON list of article ids that
// grounded an assistant reply; it is nil on user messages.
type ChatMessage struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sources   *string   `json:"sources"`
	CreatedAt time.Time `json:"created_at"`
}

// SourceIDs decodes Sources. A nil Sources returns nil with no error.
func (m ChatMessage) SourceIDs() ([]int64, error) {
	if m.Sources == nil {
		return nil, nil
	}

	ids := []int64{}
	if err := json.Unmarshal([]byte(*m.Sources), &ids); err != nil {
		return nil, fmt.Errorf("could not decode sources of message %d: %w", m.ID, err)
	}

	return ids, nil
}

// EncodeSources serializes article ids for ChatMessage.Sources. An empty list
// encodes as "[]", never "null".
func EncodeSources(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
