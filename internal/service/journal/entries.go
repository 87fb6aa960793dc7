package journal

import (
	"context"
	"math"
	"time"

	"moodlog/internal/apperr"
	"moodlog/internal/models"
	"moodlog/internal/responder"
)

const (
	DefaultEntryDays = 7
	MaxEntryDays     = 365

	week = 7 * 24 * time.Hour
)

// DailySummary is the reflection over the current UTC day.
type DailySummary struct {
	responder.Daily
	Date string `json:"date"`
}

// WeeklySummary is the reflection over the trailing seven days.
type WeeklySummary struct {
	responder.Weekly
	WeekStart string `json:"week_start"`
}

// Stats is the overview shown on the dashboard.
type Stats struct {
	TotalEntries     int     `json:"total_entries"`
	EntriesThisWeek  int     `json:"entries_this_week"`
	EntriesToday     int     `json:"entries_today"`
	AvgSentimentWeek float64 `json:"avg_sentiment_this_week"`
}

// Entries returns the owner's entries of the last days days, newest first.
func (s *Service) Entries(ctx context.Context, owner models.Owner, days int) ([]models.MoodEntry, error) {
	if days < 1 || days > MaxEntryDays {
		return nil, apperr.InvalidInput("days must be between 1 and 365")
	}
	entries, err := s.ledger.InWindow(ctx, owner, s.now().Add(-time.Duration(days)*24*time.Hour))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// TodayEntries returns the owner's entries since UTC midnight, oldest first.
func (s *Service) TodayEntries(ctx context.Context, owner models.Owner) ([]models.MoodEntry, error) {
	entries, err := s.ledger.InWindow(ctx, owner, startOfDay(s.now()))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return entries, nil
}

func (s *Service) DailySummary(ctx context.Context, owner models.Owner) (*DailySummary, error) {
	today := startOfDay(s.now())
	entries, err := s.ledger.InWindow(ctx, owner, today)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &DailySummary{
		Daily: s.responder.DailySummary(ctx, entries),
		Date:  today.Format(time.DateOnly),
	}, nil
}

func (s *Service) WeeklySummary(ctx context.Context, owner models.Owner) (*WeeklySummary, error) {
	start := s.now().UTC().Add(-week)
	entries, err := s.ledger.InWindow(ctx, owner, start)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &WeeklySummary{
		Weekly:    s.responder.WeeklyInsights(ctx, entries),
		WeekStart: start.Format(time.DateOnly),
	}, nil
}

// Stats aggregates the owner's counts. The weekly average sentiment score
// is 0.5 when nothing was classified this week.
func (s *Service) Stats(ctx context.Context, owner models.Owner) (*Stats, error) {
	now := s.now()
	total, err := s.ledger.Count(ctx, owner)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	weekEntries, err := s.ledger.InWindow(ctx, owner, now.Add(-week))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	today := startOfDay(now)
	stats := &Stats{TotalEntries: total, EntriesThisWeek: len(weekEntries), AvgSentimentWeek: 0.5}
	var (
		sum    float64
		scored int
	)
	for _, e := range weekEntries {
		if !e.CreatedAt.Before(today) {
			stats.EntriesToday++
		}
		if e.SentimentScore != nil {
			sum += *e.SentimentScore
			scored++
		}
	}
	if scored > 0 {
		stats.AvgSentimentWeek = roundScore(sum / float64(scored))
	}
	return stats, nil
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
