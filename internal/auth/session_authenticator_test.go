package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mrhollen/knowledgebase/internal/db"
	"github.com/mrhollen/knowledgebase/internal/models"
)

func newTestAuth(t *testing.T) (*SessionAuthenticator, *db.Store, *models.User) {
	t.Helper()

	store, err := db.NewSQLiteDB(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	user, err := store.CreateUser(context.Background(), models.User{
		Username: "alice", Email: "alice@example.com", HashedPassword: "x",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return NewSessionAuthenticator(store, store, SessionOptions{TTL: time.Hour}), store, user
}

func TestStartSessionAndAuthenticate(t *testing.T) {
	a, _, user := newTestAuth(t)

	rec := httptest.NewRecorder()
	session, err := a.StartSession(context.Background(), rec, user.ID)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "session_token" || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	got, err := a.Authenticate(req)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %d, got %d", user.ID, got.ID)
	}

	bearer := httptest.NewRequest(http.MethodGet, "/", nil)
	bearer.Header.Set("Authorization", "Bearer "+session.Token)
	if _, err := a.Authenticate(bearer); err != nil {
		t.Errorf("bearer token should authenticate: %v", err)
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	a, store, user := newTestAuth(t)

	if _, err := a.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil)); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("missing token: expected ErrNotAuthenticated, got %v", err)
	}

	unknown := httptest.NewRequest(http.MethodGet, "/", nil)
	unknown.AddCookie(&http.Cookie{Name: "session_token", Value: "nope"})
	if _, err := a.Authenticate(unknown); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("unknown token: expected ErrNotAuthenticated, got %v", err)
	}

	ctx := context.Background()
	if _, err := store.CreateUserSession(ctx, user.ID, "expired", time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	expired := httptest.NewRequest(http.MethodGet, "/", nil)
	expired.AddCookie(&http.Cookie{Name: "session_token", Value: "expired"})
	if _, err := a.Authenticate(expired); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expired token: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := store.GetUserSessionByToken(ctx, "expired"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expired session should be deleted, got %v", err)
	}
}

func TestEndSession(t *testing.T) {
	a, store, user := newTestAuth(t)

	rec := httptest.NewRecorder()
	session, _ := a.StartSession(context.Background(), rec, user.ID)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	out := httptest.NewRecorder()
	if err := a.EndSession(out, req); err != nil {
		t.Fatalf("end session failed: %v", err)
	}

	if _, err := store.GetUserSessionByToken(context.Background(), session.Token); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("session should be deleted, got %v", err)
	}
	cleared := out.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("cookie should be cleared, got %+v", cleared)
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := RequireRole(models.UserRoleAdmin)(ok)

	tests := []struct {
		user *models.User
		want int
	}{
		{nil, http.StatusUnauthorized},
		{&models.User{ID: 1, Role: models.UserRoleUser}, http.StatusForbidden},
		{&models.User{ID: 1, Role: models.UserRoleModerator}, http.StatusForbidden},
		{&models.User{ID: 1, Role: models.UserRoleAdmin}, http.StatusNoContent},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.user != nil {
			req = req.WithContext(WithUser(req.Context(), tt.user))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("user %+v: expected %d, got %d", tt.user, tt.want, rec.Code)
		}
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("correct password should match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("wrong password should not match")
	}
	if _, err := HashPassword("short"); err == nil {
		t.Error("short password should be rejected")
	}
}

func TestCanModify(t *testing.T) {
	owner := &models.User{ID: 1, Role: models.UserRoleUser}
	other := &models.User{ID: 2, Role: models.UserRoleModerator}
	admin := &models.User{ID: 3, Role: models.UserRoleAdmin}

	if !CanModify(owner, 1) || CanModify(other, 1) || !CanModify(admin, 1) || CanModify(nil, 1) {
		t.Error("unexpected CanModify result")
	}
}
