package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moodlog/internal/apperr"
	"moodlog/internal/models"
)

// SettingsUpdate carries the fields to change; nil fields are left as they are.
type SettingsUpdate struct {
	ReminderEnabled *bool   `json:"reminder_enabled"`
	ReminderTime    *string `json:"reminder_time"`
	PrivacyMode     *bool   `json:"privacy_mode"`
	SafeMode        *bool   `json:"safe_mode"`
}

// GetSettings returns the user's settings, creating the defaults on first read.
func (s *Service) GetSettings(ctx context.Context, userID int64) (*models.Settings, error) {
	st, err := s.loadSettings(ctx, userID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Internal(err)
	}
	defaults := models.DefaultSettings(userID)
	defaults.UpdatedAt = s.now().UTC()
	if err := s.saveSettings(ctx, &defaults); err != nil {
		return nil, apperr.Internal(err)
	}
	return &defaults, nil
}

// UpdateSettings applies a partial update and returns the stored settings.
func (s *Service) UpdateSettings(ctx context.Context, userID int64, upd SettingsUpdate) (*models.Settings, error) {
	if upd.ReminderTime != nil {
		if _, err := time.Parse("15:04", *upd.ReminderTime); err != nil || len(*upd.ReminderTime) != 5 {
			return nil, apperr.InvalidInput("reminder_time must be HH:MM")
		}
	}
	st, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.ReminderEnabled != nil {
		st.ReminderEnabled = *upd.ReminderEnabled
	}
	if upd.ReminderTime != nil {
		st.ReminderTime = *upd.ReminderTime
	}
	if upd.PrivacyMode != nil {
		st.PrivacyMode = *upd.PrivacyMode
	}
	if upd.SafeMode != nil {
		st.SafeMode = *upd.SafeMode
	}
	st.UpdatedAt = s.now().UTC()
	if err := s.saveSettings(ctx, st); err != nil {
		return nil, apperr.Internal(err)
	}
	return st, nil
}

func (s *Service) loadSettings(ctx context.Context, userID int64) (*models.Settings, error) {
	st := models.Settings{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT reminder_enabled, reminder_time, privacy_mode, safe_mode, updated_at FROM settings WHERE user_id = ?`,
		userID,
	).Scan(&st.ReminderEnabled, &st.ReminderTime, &st.PrivacyMode, &st.SafeMode, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	st.UpdatedAt = st.UpdatedAt.UTC()
	return &st, nil
}

// saveSettings upserts with a delete-then-insert inside a transaction, which
// both sqlite and mysql accept.
func (s *Service) saveSettings(ctx context.Context, st *models.Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings tx: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE user_id = ?`, st.UserID); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings (user_id, reminder_enabled, reminder_time, privacy_mode, safe_mode, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		st.UserID, st.ReminderEnabled, st.ReminderTime, st.PrivacyMode, st.SafeMode, st.UpdatedAt,
	); err != nil {
		return fmt.Errorf("store settings: %w", err)
	}
	return tx.Commit()
}
