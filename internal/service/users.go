package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/mrhollen/knowledgebase/internal/auth"
	"github.com/mrhollen/knowledgebase/internal/db"
	"github.com/mrhollen/knowledgebase/internal/models"
)

type RegisterInput struct {
	Username string
	Email    string
	FullName *string
	Password string
	Role     models.UserRole
}

type UserService struct {
	users db.UserStore
}

func NewUserService(users db.UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if in.Role == "" {
		in.Role = models.UserRoleUser
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.users.CreateUser(ctx, models.User{
		Username:       in.Username,
		Email:          in.Email,
		FullName:       in.FullName,
		HashedPassword: hash,
		Role:           in.Role,
	})
}

// Login returns the user when the password matches and
// auth.ErrNotAuthenticated for an unknown user or a wrong password. Store
// failures are returned as they are.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, db.ErrNotFound) {
		return nil, auth.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %q: %w", username, err)
	}
	if !auth.CheckPassword(user.HashedPassword, password) {
		return nil, auth.ErrNotAuthenticated
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	return s.users.ListUsers(ctx, skip, limit)
}

func (s *UserService) UpdateRole(ctx context.Context, id int64, role models.UserRole) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	return s.users.UpdateUserRole(ctx, id, role)
}
