package handlers

import (
	"errors"
	"fmt"
	"net/http"

	api "github.com/mrhollen/knowledgebase/internal/api/users"
	"github.com/mrhollen/knowledgebase/internal/auth"
	"github.com/mrhollen/knowledgebase/internal/models"
	"github.com/mrhollen/knowledgebase/internal/service"
)

type UserHandler struct {
	Users *service.UserService
	Auth  *auth.SessionAuthenticator
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// Elevated roles are granted through the admin role endpoint only.
	if req.Role != "" && req.Role != models.UserRoleUser {
		writeError(w, r, fmt.Errorf("self-registration as %q: %w", req.Role, auth.ErrForbidden))
		return
	}

	user, err := h.Users.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.Users.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrNotAuthenticated) {
		writeDetail(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.Auth.StartSession(r.Context(), w, user.ID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.EndSession(w, r); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := paging(r)

	users, err := h.Users.List(r.Context(), skip, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req api.RoleUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.Users.UpdateRole(r.Context(), id, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
