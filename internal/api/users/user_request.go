package api

import "github.com/mrhollen/knowledgebase/internal/models"

type RegisterRequest struct {
	Username string          `json:"username"`
	Email    string          `json:"email"`
	FullName *string         `json:"full_name,omitempty"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RoleUpdateRequest struct {
	Role models.UserRole `json:"role"`
}
