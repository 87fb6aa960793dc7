package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"moodlog/internal/completion"
	"moodlog/internal/models"
)

type recordingCompleter struct {
	reply    string
	err      error
	requests []completion.Request
}

func (r *recordingCompleter) Complete(_ context.Context, req completion.Request) (string, error) {
	r.requests = append(r.requests, req)
	return r.reply, r.err
}

func entry(msg, label string) models.MoodEntry {
	e := models.MoodEntry{UserMessage: msg}
	if label != "" {
		score := 0.5
		e.SentimentScore = &score
		e.SentimentLabel = &label
	}
	return e
}

func TestRespondKeepsLastFiveExchanges(t *testing.T) {
	fake := &recordingCompleter{reply: "That sounds hard."}
	r := New(fake)

	var history []Exchange
	for i := 1; i <= 7; i++ {
		history = append(history, Exchange{Message: fmt.Sprintf("m%d", i), Reply: fmt.Sprintf("r%d", i)})
	}
	got := r.Respond(context.Background(), "How do I cope?", history)
	if got != "That sounds hard." {
		t.Fatalf("Respond = %q", got)
	}
	req := fake.requests[0]
	if req.MaxTokens != 200 {
		t.Fatalf("max tokens = %d", req.MaxTokens)
	}
	if !strings.Contains(req.System, "Eli") {
		t.Fatalf("persona prompt missing: %q", req.System)
	}
	if len(req.Turns) != 11 {
		t.Fatalf("turns = %d, want 11", len(req.Turns))
	}
	if req.Turns[0].Content != "m3" || req.Turns[1].Content != "r3" {
		t.Fatalf("oldest kept exchange = %q/%q", req.Turns[0].Content, req.Turns[1].Content)
	}
	last := req.Turns[len(req.Turns)-1]
	if last.Role != completion.RoleUser || last.Content != "How do I cope?" {
		t.Fatalf("last turn = %+v", last)
	}
}

func TestRespondFallback(t *testing.T) {
	r := New(&recordingCompleter{err: errors.New("quota exceeded")})
	if got := r.Respond(context.Background(), "hello", nil); got != ReplyFallback {
		t.Fatalf("Respond = %q", got)
	}
	if got := New(nil).Respond(context.Background(), "hello", nil); got != ReplyFallback {
		t.Fatalf("nil completer Respond = %q", got)
	}
}

func TestDailySummary(t *testing.T) {
	fake := &recordingCompleter{reply: "A day of steady effort."}
	r := New(fake)

	empty := r.DailySummary(context.Background(), nil)
	if empty.Summary != NoEntriesToday || empty.EntryCount != 0 {
		t.Fatalf("empty daily = %+v", empty)
	}
	if len(fake.requests) != 0 {
		t.Fatalf("empty input should not call completer")
	}

	d := r.DailySummary(context.Background(), []models.MoodEntry{entry("woke up early", ""), entry("went for a walk", "positive")})
	if d.Summary != "A day of steady effort." || d.EntryCount != 2 {
		t.Fatalf("daily = %+v", d)
	}
	req := fake.requests[0]
	if req.MaxTokens != 150 || !strings.Contains(req.Turns[0].Content, "- went for a walk") {
		t.Fatalf("daily request = %+v", req)
	}

	fake.err = errors.New("timeout")
	if d := r.DailySummary(context.Background(), []models.MoodEntry{entry("x", "")}); d.Summary != DailyFallback || d.EntryCount != 1 {
		t.Fatalf("daily fallback = %+v", d)
	}
}

func TestWeeklyInsights(t *testing.T) {
	fake := &recordingCompleter{err: errors.New("down")}
	r := New(fake)

	empty := r.WeeklyInsights(context.Background(), nil)
	if empty.Insights != NoEntriesWeek || empty.EntryCount != 0 {
		t.Fatalf("empty weekly = %+v", empty)
	}

	entries := []models.MoodEntry{
		entry("good", "positive"),
		entry("bad", "negative"),
		entry("meh", "neutral"),
		entry("unscored", ""),
	}
	w := r.WeeklyInsights(context.Background(), entries)
	if w.EntryCount != 4 || w.Positive != 1 || w.Negative != 1 || w.Neutral != 1 {
		t.Fatalf("weekly counts = %+v", w)
	}
	if w.Insights != "You've made 4 entries this week. Each one is a step toward better self-understanding." {
		t.Fatalf("weekly fallback = %q", w.Insights)
	}
}

func TestWeeklyInsightsSamples(t *testing.T) {
	fake := &recordingCompleter{reply: "You kept showing up."}
	r := New(fake)

	long := strings.Repeat("é", 150)
	var entries []models.MoodEntry
	for i := 0; i < 12; i++ {
		entries = append(entries, entry(long, "positive"))
	}
	w := r.WeeklyInsights(context.Background(), entries)
	if w.Insights != "You kept showing up." || w.Positive != 12 {
		t.Fatalf("weekly = %+v", w)
	}
	prompt := fake.requests[0].Turns[0].Content
	if n := strings.Count(prompt, "\n- "); n != 10 {
		t.Fatalf("sample lines = %d, want 10", n)
	}
	if !strings.Contains(prompt, "12 mood entries this week (12 positive, 0 negative)") {
		t.Fatalf("prompt header missing counts: %q", prompt[:120])
	}
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "- ") && utf8.RuneCountInString(line) != 102 {
			t.Fatalf("sample not truncated to 100 runes: %d", utf8.RuneCountInString(line))
		}
	}
}
