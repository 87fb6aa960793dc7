package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moodlog/internal/config"
)

// PurgeExpired deletes tokens past their expiry and returns how many went.
// Cached copies expire on their own TTL.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return res.RowsAffected()
}

// StartPurgeLoop runs PurgeExpired every interval until ctx is done.
func (s *Service) StartPurgeLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = config.DefaultTokenPurgeEvery
	}
	go s.purgeLoop(ctx, interval)
}

func (s *Service) purgeLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				slog.Error("[Auth] purge expired tokens", slog.Any("err", err))
				continue
			}
			if n > 0 {
				slog.Info("[Auth] purged expired tokens", slog.Int64("count", n))
			}
		}
	}
}
