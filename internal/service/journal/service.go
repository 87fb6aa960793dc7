// Package journal is the application layer: accounts, settings, the chat
// turn and the read-side aggregates served by the HTTP API.
package journal

import (
	"context"
	"database/sql"
	"time"

	"moodlog/internal/ledger"
	"moodlog/internal/models"
	"moodlog/internal/responder"
	"moodlog/internal/sentiment"
)

// Classifier scores the emotional tone of a message. It never fails.
type Classifier interface {
	Classify(ctx context.Context, text string) sentiment.Result
}

// Responder writes replies and reflections. Each method falls back to a
// fixed text on failure.
type Responder interface {
	Respond(ctx context.Context, message string, history []responder.Exchange) string
	DailySummary(ctx context.Context, entries []models.MoodEntry) responder.Daily
	WeeklyInsights(ctx context.Context, entries []models.MoodEntry) responder.Weekly
}

// Service wires storage and the language components together.
type Service struct {
	db           *sql.DB
	ledger       *ledger.Ledger
	classifier   Classifier
	responder    Responder
	historyLimit int
	now          func() time.Time
}

// NewService builds the journal service. historyLimit bounds the number of
// prior exchanges used as chat context and is capped at responder.MaxHistory.
func NewService(db *sql.DB, l *ledger.Ledger, classifier Classifier, resp Responder, historyLimit int) *Service {
	if historyLimit <= 0 || historyLimit > responder.MaxHistory {
		historyLimit = responder.MaxHistory
	}
	return &Service{
		db:           db,
		ledger:       l,
		classifier:   classifier,
		responder:    resp,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// startOfDay returns UTC midnight of t's UTC date.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
