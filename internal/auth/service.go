package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"moodlog/internal/apperr"
	"moodlog/internal/config"
	"moodlog/internal/models"
	"moodlog/internal/redis"
)

const redisTokenPrefix = "token:"

var (
	ErrTokenRequired = errors.New("token required")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrUserGone      = errors.New("user no longer exists")
)

// Service issues, validates, and revokes bearer tokens and resolves callers
// to journal owners.
type Service struct {
	db         *sql.DB
	cache      *redis.Client
	tokenTTL   time.Duration
	headerName string
}

// NewService constructs an auth service with the supplied token lifetime.
// cache may be nil.
func NewService(db *sql.DB, cache *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = config.DefaultTokenTTL
	}
	return &Service{
		db:         db,
		cache:      cache,
		tokenTTL:   ttl,
		headerName: "Authorization",
	}
}

// IssueToken mints a new random token for the user and persists it.
func (s *Service) IssueToken(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", errors.New("invalid user id")
	}
	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	for i := 0; i < 5; i++ {
		token, err := generateToken()
		if err != nil {
			return "", err
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO user_tokens (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
			token, userID, now, expiresAt,
		)
		if err == nil {
			s.cacheToken(ctx, token, userID, s.tokenTTL)
			return token, nil
		}
	}
	return "", errors.New("could not issue token")
}

// ValidateToken verifies the token exists and has not expired, returning the user id.
// Expired tokens are deleted on sight.
func (s *Service) ValidateToken(ctx context.Context, authToken string) (int64, error) {
	if authToken == "" {
		return 0, ErrTokenRequired
	}
	if userID, err := s.cache.ID(ctx, redisTokenPrefix+authToken); err == nil {
		return userID, nil
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		slog.Warn("[Auth] token cache lookup failed", slog.Any("err", err))
	}

	var userID int64
	var expires time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM user_tokens WHERE token = ?`, authToken,
	).Scan(&userID, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInvalidToken
		}
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	remaining := time.Until(expires)
	if remaining <= 0 {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE token = ?`, authToken)
		return 0, ErrTokenExpired
	}
	s.cacheToken(ctx, authToken, userID, remaining)
	return userID, nil
}

// Require resolves a token to an existing user or fails with an
// unauthenticated error.
func (s *Service) Require(ctx context.Context, authToken string) (int64, error) {
	userID, err := s.ValidateToken(ctx, authToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenRequired):
			return 0, apperr.Unauthenticated("authorization required")
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
			return 0, apperr.Unauthenticated(err.Error())
		default:
			return 0, apperr.Internal(err)
		}
	}
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		_ = s.RevokeToken(ctx, authToken)
		return 0, apperr.Unauthenticated(ErrUserGone.Error())
	}
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("lookup token user: %w", err))
	}
	return userID, nil
}

// Resolve maps a possibly empty token to an owner. Any failure yields the guest.
func (s *Service) Resolve(ctx context.Context, authToken string) models.Owner {
	if authToken == "" {
		return models.Guest()
	}
	userID, err := s.Require(ctx, authToken)
	if err != nil {
		return models.Guest()
	}
	return models.UserOwner(userID)
}

// RevokeToken deletes a single token.
func (s *Service) RevokeToken(ctx context.Context, authToken string) error {
	if authToken == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE token = ?`, authToken); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if err := s.cache.Del(ctx, redisTokenPrefix+authToken); err != nil {
		slog.Warn("[Auth] token cache delete failed", slog.Any("err", err))
	}
	return nil
}

// RevokeUserTokens removes all tokens belonging to the user.
func (s *Service) RevokeUserTokens(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return nil
	}
	tokens, err := s.userTokens(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	keys := make([]string, 0, len(tokens))
	for _, t := range tokens {
		keys = append(keys, redisTokenPrefix+t)
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		slog.Warn("[Auth] token cache delete failed", slog.Any("err", err))
	}
	return nil
}

func (s *Service) userTokens(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token FROM user_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user tokens: %w", err)
	}
	defer rows.Close()
	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan user token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (s *Service) cacheToken(ctx context.Context, token string, userID int64, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetID(ctx, redisTokenPrefix+token, userID, ttl); err != nil {
		slog.Warn("[Auth] token cache write failed", slog.Any("err", err))
	}
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// TokenTTL reports the configured token lifetime.
func (s *Service) TokenTTL() time.Duration {
	return s.tokenTTL
}
