package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/mrhollen/knowledgebase/internal/models"
)

type contextKey struct{}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*models.User)
	return user, ok && user != nil
}

// RequireUser rejects requests without a valid session with 401.
func (a *SessionAuthenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.Authenticate(r)
		if err != nil {
			if !errors.Is(err, ErrNotAuthenticated) {
				log.Printf("authentication failed: %v", err)
			}
			writeDetail(w, http.StatusUnauthorized, ErrNotAuthenticated.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireRole must run after RequireUser. It answers 403 unless the user has
// one of roles.
func RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeDetail(w, http.StatusUnauthorized, ErrNotAuthenticated.Error())
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeDetail(w, http.StatusForbidden, fmt.Sprintf("requires %s role", roles[0]))
		})
	}
}

// CanModify reports whether user may edit or delete something owned by ownerID.
func CanModify(user *models.User, ownerID int64) bool {
	return user != nil && (user.ID == ownerID || user.Role == models.UserRoleAdmin)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
