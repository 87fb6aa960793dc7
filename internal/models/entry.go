package models

import "time"

// MoodEntry is one journaled message together with the reply and its sentiment.
// SentimentScore and SentimentLabel are both set or both nil.
type MoodEntry struct {
	ID             int64     `json:"id"`
	UserID         *int64    `json:"user_id,omitempty"`
	UserMessage    string    `json:"user_message"`
	AssistantReply string    `json:"eli_response"`
	SentimentScore *float64  `json:"sentiment_score"`
	SentimentLabel *string   `json:"sentiment_label"`
	MoodTags       *string   `json:"mood_tags"`
	CreatedAt      time.Time `json:"created_at"`
}

// Label returns the sentiment label or an empty string when unclassified.
func (e *MoodEntry) Label() string {
	if e == nil || e.SentimentLabel == nil {
		return ""
	}
	return *e.SentimentLabel
}
