package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mrhollen/knowledgebase/internal/models"
)

const userColumns = `id, username, email, full_name, hashed_password, role, created_at`

func (s *Store) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	user.CreatedAt = now()

	query := s.rebind(`
		INSERT INTO users (username, email, full_name, hashed_password, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := s.db.QueryRowContext(ctx, query, user.Username, user.Email, user.FullName,
		user.HashedPassword, string(user.Role), user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %q: %w", user.Username, ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, `id = ?`, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `username = ?`, username)
}

func (s *Store) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where)
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %v: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context, skip, limit int) ([]models.User, error) {
	skip, limit = normalizePaging(skip, limit)

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	query := s.rebind(`SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT ? OFFSET ?`)
	rows, err := s.db.QueryContext(ctx, query, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

func (s *Store) UpdateUserRole(ctx context.Context, id int64, role models.UserRole) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE users SET role = ? WHERE id = ?`), string(role), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	if err := checkAffected(res, "user", id); err != nil {
		return nil, err
	}

	return s.GetUserByID(ctx, id)
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u        models.User
		fullName sql.NullString
		role     string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &fullName, &u.HashedPassword, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.FullName = nullableString(fullName)
	u.Role = models.UserRole(role)
	return &u, nil
}

func (s *Store) CreateUserSession(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.UserSession, error) {
	if token == "" {
		return nil, errors.New("session token cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	session := models.UserSession{
		UserID:    userID,
		Token:     token,
		CreatedAt: now(),
		ExpiresAt: expiresAt.UTC(),
	}

	query := s.rebind(`
		INSERT INTO user_sessions (user_id, token, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	err := s.db.QueryRowContext(ctx, query, userID, token, session.CreatedAt, session.ExpiresAt).Scan(&session.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("session token: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user session: %w", err)
	}

	return &session, nil
}

func (s *Store) GetUserSessionByToken(ctx context.Context, token string) (*models.UserSession, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.rebind(`SELECT id, user_id, token, created_at, expires_at FROM user_sessions WHERE token = ?`)

	var session models.UserSession
	err := s.db.QueryRowContext(ctx, query, token).Scan(&session.ID, &session.UserID, &session.Token,
		&session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve user session: %w", err)
	}

	return &session, nil
}

func (s *Store) DeleteUserSession(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM user_sessions WHERE token = ?`), token); err != nil {
		return fmt.Errorf("failed to delete user session: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpiredUserSessions(ctx context.Context, at time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM user_sessions WHERE expires_at <= ?`), at.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
