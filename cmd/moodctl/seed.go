package main

import (
	"context"
	"math/rand/v2"
	"time"

	"moodlog/internal/apperr"
	"moodlog/internal/ledger"
	"moodlog/internal/models"
	"moodlog/internal/mood"
	"moodlog/internal/sentiment"
)

const (
	seedUsername = "testuser"
	seedEmail    = "test@example.com"
	seedPassword = "password123"

	defaultSeedDays   = 14
	defaultSeedPerDay = 20
)

type seedOptions struct {
	Days      int
	MaxPerDay int
	Seed      uint64
	Now       time.Time
}

type seedOutput struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Days     int    `json:"days"`
	Entries  int    `json:"entries"`
}

type sampleMessage struct {
	text     string
	polarity float64
}

var sampleMessages = []sampleMessage{
	{"I'm feeling amazing today! Everything is going so well.", 0.8},
	{"Things are going well and I'm making progress.", 0.6},
	{"Had a good day, feeling hopeful about tomorrow.", 0.5},
	{"I'm proud of myself for getting through this week.", 0.7},
	{"Making small progress every day.", 0.4},
	{"Feeling really energized and motivated today!", 0.75},
	{"Feeling grateful for the support I have.", 0.7},
	{"Feeling okay, just taking things one day at a time.", 0.1},
	{"It's been a calm day, nothing major happening.", 0.1},
	{"Just checking in, trying to stay grounded.", 0.0},
	{"Not much to report, just a regular day.", 0.05},
	{"Feeling a bit uncertain about things.", -0.1},
	{"I'm feeling a little down today.", -0.3},
	{"Having some struggles but trying to stay positive.", -0.4},
	{"Feeling overwhelmed with everything going on.", -0.6},
	{"Today has been really tough.", -0.75},
	{"Feeling anxious about tomorrow.", -0.5},
	{"Feeling lonely and disconnected.", -0.5},
	{"Struggling to stay motivated.", -0.35},
}

var sampleReplies = []string{
	"That's wonderful to hear! What's contributing to these good feelings?",
	"I'm glad things are moving in a positive direction. Progress is worth celebrating, no matter how small.",
	"Taking things one day at a time is a wise approach. You're being patient with yourself.",
	"Sometimes calm days are exactly what we need. How are you feeling about this pace?",
	"Uncertainty can be uncomfortable. What's weighing on your mind?",
	"I hear you. Down days are part of the journey. Would you like to talk about it?",
	"It takes real strength to keep trying when things are difficult. I'm here with you.",
	"Feeling overwhelmed is hard. You don't have to handle everything at once. What feels most pressing?",
	"I'm sorry today has been so hard. You're not alone in this.",
}

// seedJournal deletes any existing test user and recreates it with
// opts.Days days of check-ins, between 1 and opts.MaxPerDay per day.
func seedJournal(ctx context.Context, tk *toolkit, opts seedOptions) (*seedOutput, error) {
	if opts.Days <= 0 || opts.MaxPerDay <= 0 {
		return nil, apperr.InvalidInput("days and max-per-day must be positive")
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(now.UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	if existing, err := tk.journal.FindUser(ctx, seedUsername); err == nil {
		if err := tk.journal.DeleteUser(ctx, existing.ID); err != nil {
			return nil, err
		}
	} else if !apperr.Is(err, apperr.CodeNotFound) {
		return nil, err
	}

	user, err := tk.journal.RegisterUser(ctx, seedUsername, seedEmail, seedPassword)
	if err != nil {
		return nil, err
	}
	if _, err := tk.journal.GetSettings(ctx, user.ID); err != nil {
		return nil, err
	}

	owner := models.UserOwner(user.ID)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	total := 0
	for offset := opts.Days - 1; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)
		checkins := 1 + rng.IntN(opts.MaxPerDay)
		for i := 0; i < checkins; i++ {
			at := day.Add(time.Duration(rng.IntN(24*60*60)) * time.Second)
			if at.After(now) {
				at = now.Add(-time.Duration(rng.IntN(60)+1) * time.Second)
				if at.Before(day) {
					at = day
				}
			}
			sample := sampleMessages[rng.IntN(len(sampleMessages))]
			res := sentiment.FromPolarity(sample.polarity, sentiment.SourceDefault)
			if _, err := tk.ledger.Append(ctx, ledger.AppendParams{
				Owner:     owner,
				Message:   sample.text,
				Reply:     sampleReplies[rng.IntN(len(sampleReplies))],
				Sentiment: &res,
				Tags:      mood.ForResult(res),
				CreatedAt: at,
			}); err != nil {
				return nil, apperr.Internal(err)
			}
			total++
		}
	}

	return &seedOutput{
		UserID:   user.ID,
		Username: user.Username,
		Password: seedPassword,
		Days:     opts.Days,
		Entries:  total,
	}, nil
}
