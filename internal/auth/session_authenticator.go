package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mrhollen/knowledgebase/internal/db"
	"github.com/mrhollen/knowledgebase/internal/models"
	"github.com/mrhollen/knowledgebase/pkg/utils"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("forbidden")
)

type userStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// SessionAuthenticator issues login sessions and resolves the user behind a
// request, from the session cookie or an "Authorization: Bearer" header.
type SessionAuthenticator struct {
	sessions db.SessionStore
	users    userStore
	opts     SessionOptions
	now      func() time.Time
}

func NewSessionAuthenticator(sessions db.SessionStore, users userStore, opts SessionOptions) *SessionAuthenticator {
	if opts.CookieName == "" {
		opts.CookieName = "session_token"
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}

	return &SessionAuthenticator{
		sessions: sessions,
		users:    users,
		opts:     opts,
		now:      time.Now,
	}
}

// StartSession creates a session for userID and sets its cookie on w.
func (a *SessionAuthenticator) StartSession(ctx context.Context, w http.ResponseWriter, userID int64) (*models.UserSession, error) {
	session, err := a.sessions.CreateUserSession(ctx, userID, utils.GenerateToken(), a.now().Add(a.opts.TTL))
	if err != nil {
		return nil, fmt.Errorf("could not start session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     a.opts.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   a.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	return session, nil
}

// EndSession deletes the request's session, if any, and clears the cookie.
func (a *SessionAuthenticator) EndSession(w http.ResponseWriter, r *http.Request) error {
	token, ok := a.token(r)
	if ok {
		if err := a.sessions.DeleteUserSession(r.Context(), token); err != nil {
			return err
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     a.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (a *SessionAuthenticator) Authenticate(r *http.Request) (*models.User, error) {
	token, ok := a.token(r)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	ctx := r.Context()
	session, err := a.sessions.GetUserSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("could not look up session: %w", err)
	}

	if session.Expired(a.now()) {
		if err := a.sessions.DeleteUserSession(ctx, token); err != nil {
			log.Printf("failed to delete expired session %d: %v", session.ID, err)
		}
		return nil, ErrNotAuthenticated
	}

	user, err := a.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("could not look up user: %w", err)
	}

	return user, nil
}

func (a *SessionAuthenticator) token(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(a.opts.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	authHeader := r.Header.Get("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if authHeader == "" || token == authHeader || token == "" {
		return "", false
	}
	return token, true
}
