// Package responder produces the companion's conversational replies and the
// daily and weekly reflections built from journal entries.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"moodlog/internal/completion"
	"moodlog/internal/models"
	"moodlog/internal/sentiment"
)

const (
	// MaxHistory is the number of prior exchanges sent with a reply request.
	MaxHistory = 5

	replyMaxTokens  = 200
	dailyMaxTokens  = 150
	weeklyMaxTokens = 200

	weeklySamples   = 10
	sampleRuneLimit = 100
)

const personaPrompt = "You are Eli, a compassionate and empathetic companion supporting people " +
	"during their reentry period after incarceration. " +
	"Listen with genuine empathy and without judgment. " +
	"Help the person reflect on and understand their emotions, and ask gentle follow-up questions. " +
	"Recognize emotional patterns and validate their feelings. " +
	"Keep responses warm, conversational and concise, usually 2-4 sentences. " +
	"Never give clinical advice, but always show care and understanding."

const (
	ReplyFallback  = "I'm here with you. Sometimes I need a moment to gather my thoughts. Could you share that again?"
	NoEntriesToday = "No entries today yet. How are you feeling?"
	DailyFallback  = "You've checked in multiple times today. That shows real commitment to understanding yourself better."
	NoEntriesWeek  = "Start tracking your mood to see patterns and insights over time."
	weeklyFallback = "You've made %d entries this week. Each one is a step toward better self-understanding."
)

// Exchange is one prior user message and the reply it received.
type Exchange struct {
	Message string `json:"user_message"`
	Reply   string `json:"eli_response"`
}

// Daily is the reflection over today's entries.
type Daily struct {
	Summary    string `json:"summary"`
	EntryCount int    `json:"entry_count"`
}

// Weekly is the reflection over the trailing week.
type Weekly struct {
	Insights   string `json:"insights"`
	EntryCount int    `json:"entry_count"`
	Positive   int    `json:"positive_count"`
	Negative   int    `json:"negative_count"`
	Neutral    int    `json:"neutral_count"`
}

type Responder struct {
	completer completion.Completer
}

func New(completer completion.Completer) *Responder {
	if completer == nil {
		completer = completion.Disabled{}
	}
	return &Responder{completer: completer}
}

// Respond returns a reply to message, continuing from the last MaxHistory
// exchanges of history. It falls back to a fixed reply on any failure.
func (r *Responder) Respond(ctx context.Context, message string, history []Exchange) string {
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	turns := make([]completion.Turn, 0, 2*len(history)+1)
	for _, ex := range history {
		turns = append(turns,
			completion.Turn{Role: completion.RoleUser, Content: ex.Message},
			completion.Turn{Role: completion.RoleAssistant, Content: ex.Reply},
		)
	}
	turns = append(turns, completion.Turn{Role: completion.RoleUser, Content: message})

	reply, err := r.completer.Complete(ctx, completion.Request{
		System:    personaPrompt,
		Turns:     turns,
		MaxTokens: replyMaxTokens,
	})
	if err != nil {
		slog.Warn("[Responder] reply generation failed", slog.Any("err", err))
		return ReplyFallback
	}
	return reply
}

// DailySummary reflects on today's entries.
func (r *Responder) DailySummary(ctx context.Context, entries []models.MoodEntry) Daily {
	if len(entries) == 0 {
		return Daily{Summary: NoEntriesToday}
	}
	var b strings.Builder
	b.WriteString("Based on these mood check-ins from today, provide a brief, supportive summary (2-3 sentences) that ")
	b.WriteString("acknowledges the emotional journey, highlights any positive moments or growth and offers gentle encouragement.\n\nEntries:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s\n", e.UserMessage)
	}

	summary, err := r.completer.Complete(ctx, completion.Request{
		System:    personaPrompt,
		Turns:     []completion.Turn{{Role: completion.RoleUser, Content: b.String()}},
		MaxTokens: dailyMaxTokens,
	})
	if err != nil {
		slog.Warn("[Responder] daily summary failed", slog.Any("err", err))
		summary = DailyFallback
	}
	return Daily{Summary: summary, EntryCount: len(entries)}
}

// WeeklyInsights reflects on the week's entries and counts them by label.
// Unclassified entries are counted in the total only.
func (r *Responder) WeeklyInsights(ctx context.Context, entries []models.MoodEntry) Weekly {
	w := Weekly{EntryCount: len(entries)}
	for i := range entries {
		switch sentiment.Label(entries[i].Label()) {
		case sentiment.Positive:
			w.Positive++
		case sentiment.Negative:
			w.Negative++
		case sentiment.Neutral:
			w.Neutral++
		}
	}
	if len(entries) == 0 {
		w.Insights = NoEntriesWeek
		return w
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on %d mood entries this week (%d positive, %d negative), provide encouraging insights (3-4 sentences) that ",
		w.EntryCount, w.Positive, w.Negative)
	b.WriteString("recognize patterns or emotional themes, celebrate progress and resilience and offer perspective on the week.\n\nSample entries:\n")
	for i, e := range entries {
		if i == weeklySamples {
			break
		}
		fmt.Fprintf(&b, "- %s\n", truncateRunes(e.UserMessage, sampleRuneLimit))
	}

	insights, err := r.completer.Complete(ctx, completion.Request{
		System:    personaPrompt,
		Turns:     []completion.Turn{{Role: completion.RoleUser, Content: b.String()}},
		MaxTokens: weeklyMaxTokens,
	})
	if err != nil {
		slog.Warn("[Responder] weekly insights failed", slog.Any("err", err))
		insights = fmt.Sprintf(weeklyFallback, len(entries))
	}
	w.Insights = insights
	return w
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
