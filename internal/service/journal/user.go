package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"moodlog/internal/apperr"
	"moodlog/internal/models"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

var errInvalidCredentials = apperr.Unauthenticated("incorrect username or password")

// RegisterUser creates a user with the supplied credentials. email is optional.
func (s *Service) RegisterUser(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if utf8.RuneCountInString(username) < minUsernameLen {
		return nil, apperr.InvalidInput(fmt.Sprintf("username must be at least %d characters", minUsernameLen))
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return nil, apperr.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if email != "" && !strings.Contains(email, "@") {
		return nil, apperr.InvalidInput("email address is not valid")
	}

	taken, err := s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if taken {
		return nil, apperr.Conflict("username already registered")
	}
	if email != "" {
		taken, err = s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if taken {
			return nil, apperr.Conflict("email already registered")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}
	now := s.now().UTC()
	var emailArg any
	if email != "" {
		emailArg = email
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		username, emailArg, string(hash), now,
	)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("create user: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("user id: %w", err))
	}
	return &models.User{ID: id, Username: username, Email: email, PasswordHash: string(hash), CreatedAt: now}, nil
}

// Login validates credentials. identifier is a username or an email address.
func (s *Service) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperr.InvalidInput("username and password are required")
	}
	user, err := s.FindUser(ctx, identifier)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errInvalidCredentials
	}
	return user, nil
}

// VerifyPassword reports whether password matches the user's credentials.
func (s *Service) VerifyPassword(ctx context.Context, userID int64, password string) (bool, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil, nil
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.findUser(ctx, `WHERE id = ?`, userID)
}

// FindUser looks a user up by username or email address.
func (s *Service) FindUser(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	return s.findUser(ctx, `WHERE username = ? OR email = ?`, identifier, strings.ToLower(identifier))
}

// ListUsers returns every user ordered by id.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, email, password_hash, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list users: %w", err))
	}
	defer rows.Close()
	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

// DeleteUser removes a user and cascaded data.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.InvalidInput("invalid user id")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return apperr.Internal(fmt.Errorf("delete user: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal(fmt.Errorf("rows affected: %w", err))
	}
	if affected == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (s *Service) findUser(ctx context.Context, where string, args ...any) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, email, password_hash, created_at FROM users `+where, args...)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(r rowScanner) (*models.User, error) {
	var (
		u     models.User
		email sql.NullString
	)
	if err := r.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Email = email.String
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *Service) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found bool
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("check existence: %w", err)
	}
	return found, nil
}
