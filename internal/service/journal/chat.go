package journal

import (
	"context"
	"log/slog"
	"strings"

	"moodlog/internal/apperr"
	"moodlog/internal/ledger"
	"moodlog/internal/models"
	"moodlog/internal/mood"
	"moodlog/internal/responder"
	"moodlog/internal/sentiment"
)

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	Reply    string          `json:"eli_response"`
	Score    float64         `json:"sentiment_score"`
	Label    sentiment.Label `json:"sentiment_label"`
	Polarity float64         `json:"polarity"`
	Tags     string          `json:"mood_tags"`
	EntryID  *int64          `json:"entry_id"`
}

// SubmitMessage runs one chat turn: classify, tag, reply, record.
//
// Authenticated callers continue from their own recent entries and
// guestHistory is ignored. Guests supply their context in guestHistory and
// nothing is recorded for them.
func (s *Service) SubmitMessage(ctx context.Context, text string, owner models.Owner, guestHistory []responder.Exchange) (*ChatResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.InvalidInput("message must not be empty")
	}

	res := s.classifier.Classify(ctx, text)
	tags := mood.ForResult(res)

	var history []responder.Exchange
	if owner.IsGuest() {
		history = guestHistory
		if len(history) > s.historyLimit {
			history = history[len(history)-s.historyLimit:]
		}
	} else {
		recent, err := s.ledger.Recent(ctx, owner, s.historyLimit)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		history = make([]responder.Exchange, 0, len(recent))
		for _, e := range recent {
			history = append(history, responder.Exchange{Message: e.UserMessage, Reply: e.AssistantReply})
		}
	}

	reply := s.responder.Respond(ctx, text, history)

	result := &ChatResult{
		Reply:    reply,
		Score:    res.Score,
		Label:    res.Label,
		Polarity: res.Polarity,
		Tags:     tags,
	}
	if owner.IsGuest() {
		return result, nil
	}
	id, err := s.ledger.Append(ctx, ledger.AppendParams{
		Owner:     owner,
		Message:   text,
		Reply:     reply,
		Sentiment: &res,
		Tags:      tags,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	result.EntryID = &id
	slog.Debug("[Journal] chat turn recorded",
		slog.Int64("user_id", owner.UserID),
		slog.String("label", string(res.Label)),
		slog.String("source", string(res.Source)),
	)
	return result, nil
}

// Classify exposes the classifier directly.
func (s *Service) Classify(ctx context.Context, text string) (sentiment.Result, error) {
	if strings.TrimSpace(text) == "" {
		return sentiment.Result{}, apperr.InvalidInput("text must not be empty")
	}
	return s.classifier.Classify(ctx, text), nil
}
