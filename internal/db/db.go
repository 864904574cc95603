package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mrhollen/knowledgebase/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type ArticleStore interface {
	CreateArticle(ctx context.Context, article models.Article) (*models.Article, error)
	GetArticle(ctx context.Context, id int64) (*models.Article, error)
	// ListArticles returns articles newest first. A non-empty tags filter keeps
	// articles carrying any of the tags.
	ListArticles(ctx context.Context, skip, limit int, tags []string) ([]models.Article, error)
	// ListCandidates returns up to limit of the most recent articles with
	// their stored embeddings, newest first.
	ListCandidates(ctx context.Context, limit int) ([]models.Article, error)
	UpdateArticle(ctx context.Context, article models.Article) (*models.Article, error)
	UpdateEmbedding(ctx context.Context, id int64, embedding *string) error
	DeleteArticle(ctx context.Context, id int64) error
}

type ChatStore interface {
	CreateSession(ctx context.Context, userID int64, title *string) (*models.ChatSession, error)
	GetSession(ctx context.Context, id int64) (*models.ChatSession, error)
	ListUserSessions(ctx context.Context, userID int64) ([]models.ChatSession, error)
	DeleteSession(ctx context.Context, id int64) error
	AppendMessage(ctx context.Context, sessionID int64, role models.Role, content string, sources *string) (*models.ChatMessage, error)
	// GetMessages returns the session's messages in creation order.
	GetMessages(ctx context.Context, sessionID int64) ([]models.ChatMessage, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, skip, limit int) ([]models.User, error)
	UpdateUserRole(ctx context.Context, id int64, role models.UserRole) (*models.User, error)
}

type SessionStore interface {
	CreateUserSession(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.UserSession, error)
	GetUserSessionByToken(ctx context.Context, token string) (*models.UserSession, error)
	DeleteUserSession(ctx context.Context, token string) error
	DeleteExpiredUserSessions(ctx context.Context, now time.Time) (int64, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment models.Comment) (*models.Comment, error)
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	ListComments(ctx context.Context, articleID int64, skip, limit int) ([]models.Comment, error)
	UpdateComment(ctx context.Context, id int64, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id int64) error

	CreateReply(ctx context.Context, reply models.CommentReply) (*models.CommentReply, error)
	GetReply(ctx context.Context, id int64) (*models.CommentReply, error)
	ListReplies(ctx context.Context, commentID int64, skip, limit int) ([]models.CommentReply, error)
	UpdateReply(ctx context.Context, id int64, content string) (*models.CommentReply, error)
	DeleteReply(ctx context.Context, id int64) error
}

type DB interface {
	ArticleStore
	ChatStore
	UserStore
	SessionStore
	CommentStore
	Close() error
}

type PoolOptions struct {
	MaxOpenConns int
	MaxIdleConns int
}

// Open connects to the configured driver, "postgres" or "sqlite".
func Open(driver, dsn string, pool PoolOptions) (*Store, error) {
	switch driver {
	case DriverPostgres:
		return NewPostgresDB(dsn, pool)
	case DriverSQLite:
		return NewSQLiteDB(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
