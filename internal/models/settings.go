package models

import "time"

const DefaultReminderTime = "09:00"

// Settings holds per-user preferences.
type Settings struct {
	UserID          int64     `json:"-"`
	ReminderEnabled bool      `json:"reminder_enabled"`
	ReminderTime    string    `json:"reminder_time"`
	PrivacyMode     bool      `json:"privacy_mode"`
	SafeMode        bool      `json:"safe_mode"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultSettings returns the preferences a new user starts with.
func DefaultSettings(userID int64) Settings {
	return Settings{
		UserID:          userID,
		ReminderEnabled: true,
		ReminderTime:    DefaultReminderTime,
	}
}
