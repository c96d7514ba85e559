package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dokanpos/internal/domain"
	"dokanpos/internal/store"
)

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || user.PasswordHash == "" {
		return nil, fmt.Errorf("username and password hash are required: %w", store.ErrInvalidInput)
	}
	if user.Role == "" {
		user.Role = domain.RoleCashier
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, display_name, role, created_at)
		VALUES (?,?,?,?,?)
	`, user.Username, user.PasswordHash, user.DisplayName, user.Role, formatTime(user.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("username %s already exists: %w", user.Username, store.ErrInvalidInput)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	user.ID = id
	created := user
	return &created, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	var user domain.UserAccount
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, display_name, role, created_at
		FROM users
		WHERE username = ?
	`, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.DisplayName, &user.Role, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", username, store.ErrNotFound)
		}
		return nil, err
	}
	user.CreatedAt = parseTime(createdAt)
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, password_hash, display_name, role, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		var createdAt string
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.DisplayName, &user.Role, &createdAt); err != nil {
			return nil, err
		}
		user.CreatedAt = parseTime(createdAt)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, passwordHash string) error {
	username = strings.ToLower(strings.TrimSpace(username))

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ? WHERE username = ?
	`, passwordHash, username)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("user %s: %w", username, store.ErrNotFound)
	}
	return nil
}
