// Package ledger persists journal entries and answers the per-owner queries
// used by chat history, summaries and statistics. Guest entries are stored
// without an owner and never returned by any query.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"moodlog/internal/models"
	"moodlog/internal/sentiment"
)

var ErrEmptyMessage = errors.New("entry message must not be empty")

// Ledger is the mood_entries table.
type Ledger struct {
	db     *sql.DB
	cipher *EntryCipher
}

func New(db *sql.DB, cipher *EntryCipher) *Ledger {
	return &Ledger{db: db, cipher: cipher}
}

// AppendParams describes a new entry. A nil Sentiment stores the entry
// unclassified; an empty Tags stores no tags.
type AppendParams struct {
	Owner     models.Owner
	Message   string
	Reply     string
	Sentiment *sentiment.Result
	Tags      string
	CreatedAt time.Time
}

// Append stores an entry and returns its id.
func (l *Ledger) Append(ctx context.Context, p AppendParams) (int64, error) {
	if strings.TrimSpace(p.Message) == "" {
		return 0, ErrEmptyMessage
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC().Truncate(time.Microsecond)

	message, err := l.cipher.Seal(columnMessage, p.Message)
	if err != nil {
		return 0, fmt.Errorf("seal message: %w", err)
	}
	reply, err := l.cipher.Seal(columnReply, p.Reply)
	if err != nil {
		return 0, fmt.Errorf("seal reply: %w", err)
	}

	var (
		userID any
		score  any
		label  any
		tags   any
	)
	if !p.Owner.IsGuest() {
		userID = p.Owner.UserID
	}
	if p.Sentiment != nil {
		score = p.Sentiment.Score
		label = string(p.Sentiment.Label)
	}
	if p.Tags != "" {
		tags = p.Tags
	}

	res, err := l.db.ExecContext(ctx,
		`INSERT INTO mood_entries (user_id, user_message, assistant_reply, sentiment_score, sentiment_label, mood_tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, message, reply, score, label, tags, createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert mood entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("mood entry id: %w", err)
	}
	return id, nil
}

// Recent returns the owner's newest limit entries in chronological order.
func (l *Ledger) Recent(ctx context.Context, owner models.Owner, limit int) ([]models.MoodEntry, error) {
	if owner.IsGuest() || limit <= 0 {
		return []models.MoodEntry{}, nil
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM mood_entries
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		owner.UserID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent entries: %w", err)
	}
	entries, err := l.scanEntries(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// InWindow returns the owner's entries created at or after since, oldest first.
func (l *Ledger) InWindow(ctx context.Context, owner models.Owner, since time.Time) ([]models.MoodEntry, error) {
	if owner.IsGuest() {
		return []models.MoodEntry{}, nil
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM mood_entries
		 WHERE user_id = ? AND created_at >= ?
		 ORDER BY created_at ASC, id ASC`,
		owner.UserID, since.UTC().Truncate(time.Microsecond),
	)
	if err != nil {
		return nil, fmt.Errorf("query entries since: %w", err)
	}
	return l.scanEntries(rows)
}

// Count returns the number of entries the owner has ever made.
func (l *Ledger) Count(ctx context.Context, owner models.Owner) (int, error) {
	if owner.IsGuest() {
		return 0, nil
	}
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mood_entries WHERE user_id = ?`, owner.UserID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// CountsByUser reports entry totals per user id. Guest entries are keyed by 0.
func (l *Ledger) CountsByUser(ctx context.Context) (map[int64]int, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT COALESCE(user_id, 0), COUNT(*) FROM mood_entries GROUP BY COALESCE(user_id, 0)`)
	if err != nil {
		return nil, fmt.Errorf("count entries by user: %w", err)
	}
	defer rows.Close()
	counts := make(map[int64]int)
	for rows.Next() {
		var (
			userID int64
			n      int
		)
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, fmt.Errorf("scan entry count: %w", err)
		}
		counts[userID] = n
	}
	return counts, rows.Err()
}

// ResetUser deletes every entry of userID and returns how many were removed.
func (l *Ledger) ResetUser(ctx context.Context, userID int64) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM mood_entries WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("reset user entries: %w", err)
	}
	return res.RowsAffected()
}

// ResetAll deletes every entry including guest ones.
func (l *Ledger) ResetAll(ctx context.Context) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM mood_entries`)
	if err != nil {
		return 0, fmt.Errorf("reset entries: %w", err)
	}
	return res.RowsAffected()
}

const entryColumns = `id, user_id, user_message, assistant_reply, sentiment_score, sentiment_label, mood_tags, created_at`

// Sealed text columns; the name is authenticated with the ciphertext.
const (
	columnMessage = "user_message"
	columnReply   = "assistant_reply"
)

// scanEntries drains and closes rows.
func (l *Ledger) scanEntries(rows *sql.Rows) ([]models.MoodEntry, error) {
	defer rows.Close()
	entries := []models.MoodEntry{}
	for rows.Next() {
		var (
			e      models.MoodEntry
			userID sql.NullInt64
			score  sql.NullFloat64
			label  sql.NullString
			tags   sql.NullString
		)
		if err := rows.Scan(&e.ID, &userID, &e.UserMessage, &e.AssistantReply, &score, &label, &tags, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mood entry: %w", err)
		}
		if userID.Valid {
			e.UserID = &userID.Int64
		}
		if score.Valid && label.Valid {
			e.SentimentScore = &score.Float64
			e.SentimentLabel = &label.String
		}
		if tags.Valid {
			e.MoodTags = &tags.String
		}
		e.UserMessage = l.open(e.ID, columnMessage, e.UserMessage)
		e.AssistantReply = l.open(e.ID, columnReply, e.AssistantReply)
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mood entries: %w", err)
	}
	return entries, nil
}

func (l *Ledger) open(id int64, column, stored string) string {
	plain, err := l.cipher.Open(column, stored)
	if err != nil {
		slog.Warn("[Ledger] entry text could not be opened",
			slog.Int64("entry_id", id),
			slog.String("column", column),
			slog.Any("err", err),
		)
		return stored
	}
	return plain
}
