package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"moodlog/internal/auth"
	"moodlog/internal/completion"
	"moodlog/internal/ledger"
	"moodlog/internal/responder"
	"moodlog/internal/sentiment"
	"moodlog/internal/service/journal"
	"moodlog/internal/storage"
)

func TestHandlersEndToEndFlow(t *testing.T) {
	router, db, _ := newTestServer(t, &mockCompleter{score: "0.8", reply: "Mock reply from Eli."})
	defer db.Close()

	username := fmt.Sprintf("tester_%d", time.Now().UnixNano())
	password := "pass123"

	// Sign up returns a usable token straight away.
	signupResp := doJSONRequest(t, router, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	}, nil)
	assertStatus(t, signupResp, http.StatusCreated)
	var signupBody struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	decodeJSON(t, signupResp.Body.Bytes(), &signupBody)
	if signupBody.AccessToken == "" || signupBody.TokenType != "bearer" || signupBody.User.ID == 0 {
		t.Fatalf("unexpected signup body: %s", signupResp.Body.String())
	}
	if strings.Contains(signupResp.Body.String(), "password") {
		t.Fatalf("password hash leaked: %s", signupResp.Body.String())
	}

	// Login by email.
	loginResp := doJSONRequest(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    username + "@example.com",
		"password": password,
	}, nil)
	assertStatus(t, loginResp, http.StatusOK)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp.Body.Bytes(), &loginBody)
	authHeader := map[string]string{"Authorization": fmt.Sprintf("Bearer %s", loginBody.AccessToken)}

	meResp := doJSONRequest(t, router, http.MethodGet, "/api/auth/me", nil, authHeader)
	assertStatus(t, meResp, http.StatusOK)
	if !strings.Contains(meResp.Body.String(), username) {
		t.Fatalf("me missing username: %s", meResp.Body.String())
	}

	// Chat as the user.
	chatResp := doJSONRequest(t, router, http.MethodPost, "/api/chat", map[string]string{
		"message": "Things are going well",
	}, authHeader)
	assertStatus(t, chatResp, http.StatusOK)
	var chatBody struct {
		Reply    string  `json:"eli_response"`
		Score    float64 `json:"sentiment_score"`
		Label    string  `json:"sentiment_label"`
		Polarity float64 `json:"polarity"`
		Tags     string  `json:"mood_tags"`
		EntryID  *int64  `json:"entry_id"`
	}
	decodeJSON(t, chatResp.Body.Bytes(), &chatBody)
	if chatBody.Reply != "Mock reply from Eli." || chatBody.Label != "positive" || chatBody.Score != 0.9 {
		t.Fatalf("unexpected chat body: %s", chatResp.Body.String())
	}
	if chatBody.Tags != "joyful, optimistic" || chatBody.EntryID == nil {
		t.Fatalf("unexpected chat tags/entry: %s", chatResp.Body.String())
	}

	entriesResp := doJSONRequest(t, router, http.MethodGet, "/api/entries?days=7", nil, authHeader)
	assertStatus(t, entriesResp, http.StatusOK)
	var entries []struct {
		ID          int64  `json:"id"`
		UserMessage string `json:"user_message"`
		Reply       string `json:"eli_response"`
	}
	decodeJSON(t, entriesResp.Body.Bytes(), &entries)
	if len(entries) != 1 || entries[0].ID != *chatBody.EntryID || entries[0].Reply != "Mock reply from Eli." {
		t.Fatalf("unexpected entries: %s", entriesResp.Body.String())
	}

	todayResp := doJSONRequest(t, router, http.MethodGet, "/api/entries/today", nil, authHeader)
	assertStatus(t, todayResp, http.StatusOK)
	decodeJSON(t, todayResp.Body.Bytes(), &entries)
	if len(entries) != 1 {
		t.Fatalf("expected one entry today, got %s", todayResp.Body.String())
	}

	statsResp := doJSONRequest(t, router, http.MethodGet, "/api/stats/overview", nil, authHeader)
	assertStatus(t, statsResp, http.StatusOK)
	var stats map[string]float64
	decodeJSON(t, statsResp.Body.Bytes(), &stats)
	if stats["total_entries"] != 1 || stats["entries_today"] != 1 || stats["avg_sentiment_this_week"] != 0.9 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	weeklyResp := doJSONRequest(t, router, http.MethodGet, "/api/summary/weekly", nil, authHeader)
	assertStatus(t, weeklyResp, http.StatusOK)
	var weekly struct {
		Insights   string `json:"insights"`
		EntryCount int    `json:"entry_count"`
		Positive   int    `json:"positive_count"`
		WeekStart  string `json:"week_start"`
	}
	decodeJSON(t, weeklyResp.Body.Bytes(), &weekly)
	if weekly.EntryCount != 1 || weekly.Positive != 1 || weekly.WeekStart == "" {
		t.Fatalf("unexpected weekly: %s", weeklyResp.Body.String())
	}

	// Settings are created with defaults and partially updated.
	settingsResp := doJSONRequest(t, router, http.MethodGet, "/api/settings", nil, authHeader)
	assertStatus(t, settingsResp, http.StatusOK)
	var settings struct {
		ReminderEnabled bool   `json:"reminder_enabled"`
		ReminderTime    string `json:"reminder_time"`
		PrivacyMode     bool   `json:"privacy_mode"`
	}
	decodeJSON(t, settingsResp.Body.Bytes(), &settings)
	if !settings.ReminderEnabled || settings.ReminderTime != "09:00" || settings.PrivacyMode {
		t.Fatalf("unexpected default settings: %s", settingsResp.Body.String())
	}
	putResp := doJSONRequest(t, router, http.MethodPut, "/api/settings", map[string]any{"privacy_mode": true}, authHeader)
	assertStatus(t, putResp, http.StatusOK)
	decodeJSON(t, putResp.Body.Bytes(), &settings)
	if !settings.PrivacyMode || settings.ReminderTime != "09:00" {
		t.Fatalf("unexpected updated settings: %s", putResp.Body.String())
	}
	badPut := doJSONRequest(t, router, http.MethodPut, "/api/settings", map[string]any{"reminder_time": "7pm"}, authHeader)
	assertStatus(t, badPut, http.StatusBadRequest)

	verifyResp := doJSONRequest(t, router, http.MethodPost, "/api/auth/verify-password", map[string]string{"password": password}, authHeader)
	assertStatus(t, verifyResp, http.StatusOK)
	wrongResp := doJSONRequest(t, router, http.MethodPost, "/api/auth/verify-password", map[string]string{"password": "nope"}, authHeader)
	assertStatus(t, wrongResp, http.StatusUnauthorized)

	// Logout revokes the token.
	logoutResp := doJSONRequest(t, router, http.MethodPost, "/api/auth/logout", nil, authHeader)
	assertStatus(t, logoutResp, http.StatusNoContent)
	afterLogout := doJSONRequest(t, router, http.MethodGet, "/api/auth/me", nil, authHeader)
	assertStatus(t, afterLogout, http.StatusUnauthorized)

	// The signup token is still valid.
	otherHeader := map[string]string{"Authorization": "Bearer " + signupBody.AccessToken}
	assertStatus(t, doJSONRequest(t, router, http.MethodGet, "/api/auth/me", nil, otherHeader), http.StatusOK)
}

func TestGuestChatIsNotReadable(t *testing.T) {
	router, db, _ := newTestServer(t, &mockCompleter{score: "-0.6", reply: "I'm here."})
	defer db.Close()

	chatResp := doJSONRequest(t, router, http.MethodPost, "/api/chat", map[string]any{
		"message": "I'm feeling overwhelmed",
		"history": []map[string]string{{"user_message": "hi", "eli_response": "hello"}},
	}, nil)
	assertStatus(t, chatResp, http.StatusOK)
	var chatBody struct {
		Label   string `json:"sentiment_label"`
		Tags    string `json:"mood_tags"`
		EntryID *int64 `json:"entry_id"`
	}
	decodeJSON(t, chatResp.Body.Bytes(), &chatBody)
	if chatBody.Label != "negative" || chatBody.Tags != "struggling, anxious" || chatBody.EntryID != nil {
		t.Fatalf("unexpected guest chat body: %s", chatResp.Body.String())
	}
	if n := countEntries(t, db); n != 0 {
		t.Fatalf("guest chat stored %d entries", n)
	}

	for _, path := range []string{"/api/entries", "/api/entries/today"} {
		resp := doJSONRequest(t, router, http.MethodGet, path, nil, nil)
		assertStatus(t, resp, http.StatusOK)
		if strings.TrimSpace(resp.Body.String()) != "[]" {
			t.Fatalf("%s for guest = %s", path, resp.Body.String())
		}
	}

	statsResp := doJSONRequest(t, router, http.MethodGet, "/api/stats/overview", nil, nil)
	assertStatus(t, statsResp, http.StatusOK)
	var stats map[string]float64
	decodeJSON(t, statsResp.Body.Bytes(), &stats)
	if stats["total_entries"] != 0 || stats["avg_sentiment_this_week"] != 0.5 {
		t.Fatalf("unexpected guest stats: %v", stats)
	}

	dailyResp := doJSONRequest(t, router, http.MethodGet, "/api/summary/daily", nil, nil)
	assertStatus(t, dailyResp, http.StatusOK)
	if !strings.Contains(dailyResp.Body.String(), responder.NoEntriesToday) {
		t.Fatalf("unexpected guest daily: %s", dailyResp.Body.String())
	}

	// An invalid token is treated as a guest on optional routes.
	bogus := map[string]string{"Authorization": "Bearer bogus"}
	assertStatus(t, doJSONRequest(t, router, http.MethodGet, "/api/entries", nil, bogus), http.StatusOK)
	assertStatus(t, doJSONRequest(t, router, http.MethodGet, "/api/settings", nil, bogus), http.StatusUnauthorized)
}

func TestHandlersValidation(t *testing.T) {
	router, db, _ := newTestServer(t, &mockCompleter{score: "0", reply: "ok"})
	defer db.Close()
	_, authHeader := registerAndLogin(t, router)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		header map[string]string
		status int
	}{
		{"empty chat", http.MethodPost, "/api/chat", map[string]string{"message": "  "}, nil, http.StatusBadRequest},
		{"empty sentiment", http.MethodPost, "/api/sentiment", map[string]string{"text": ""}, nil, http.StatusBadRequest},
		{"days zero", http.MethodGet, "/api/entries?days=0", nil, authHeader, http.StatusBadRequest},
		{"days too large", http.MethodGet, "/api/entries?days=366", nil, authHeader, http.StatusBadRequest},
		{"days not a number", http.MethodGet, "/api/entries?days=abc", nil, authHeader, http.StatusBadRequest},
		{"short password", http.MethodPost, "/api/auth/signup", map[string]string{"username": "someone", "password": "123"}, nil, http.StatusBadRequest},
		{"short username", http.MethodPost, "/api/auth/signup", map[string]string{"username": "ab", "password": "123456"}, nil, http.StatusBadRequest},
		{"wrong login", http.MethodPost, "/api/auth/login", map[string]string{"username": "nobody", "password": "123456"}, nil, http.StatusUnauthorized},
		{"settings without token", http.MethodGet, "/api/settings", nil, nil, http.StatusUnauthorized},
		{"me without token", http.MethodGet, "/api/auth/me", nil, nil, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSONRequest(t, router, tc.method, tc.path, tc.body, tc.header)
			assertStatus(t, resp, tc.status)
			var body struct {
				Error string `json:"error"`
			}
			decodeJSON(t, resp.Body.Bytes(), &body)
			if body.Error == "" {
				t.Fatalf("expected error message, got %s", resp.Body.String())
			}
		})
	}

	dup := doJSONRequest(t, router, http.MethodPost, "/api/auth/signup", map[string]string{"username": "dupe_user", "password": "123456"}, nil)
	assertStatus(t, dup, http.StatusCreated)
	dup = doJSONRequest(t, router, http.MethodPost, "/api/auth/signup", map[string]string{"username": "dupe_user", "password": "123456"}, nil)
	assertStatus(t, dup, http.StatusConflict)
}

func TestSentimentEndpointAndFallbacks(t *testing.T) {
	router, db, _ := newTestServer(t, &mockCompleter{fail: true})
	defer db.Close()

	resp := doJSONRequest(t, router, http.MethodPost, "/api/sentiment", map[string]string{"text": "I'm feeling overwhelmed today"}, nil)
	assertStatus(t, resp, http.StatusOK)
	var body struct {
		Score    float64 `json:"score"`
		Label    string  `json:"label"`
		Polarity float64 `json:"polarity"`
	}
	decodeJSON(t, resp.Body.Bytes(), &body)
	if body.Label != "negative" || body.Score >= 0.5 || body.Polarity >= 0 {
		t.Fatalf("unexpected sentiment: %s", resp.Body.String())
	}

	chatResp := doJSONRequest(t, router, http.MethodPost, "/api/chat", map[string]string{"message": "hello"}, nil)
	assertStatus(t, chatResp, http.StatusOK)
	if !strings.Contains(chatResp.Body.String(), "I'm here with you.") {
		t.Fatalf("expected fallback reply, got %s", chatResp.Body.String())
	}
	if chatResp.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}

	root := doJSONRequest(t, router, http.MethodGet, "/", nil, nil)
	assertStatus(t, root, http.StatusOK)

	preflight := doJSONRequest(t, router, http.MethodOptions, "/api/chat", nil, nil)
	assertStatus(t, preflight, http.StatusNoContent)
	if preflight.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}

func newTestServer(t *testing.T, completer completion.Completer) (*gin.Engine, *sql.DB, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	journalSvc := journal.NewService(db, ledger.New(db, nil), sentiment.NewClassifier(completer), responder.New(completer), 5)
	authSvc := auth.NewService(db, nil, time.Hour)
	handler := NewHandler(journalSvc, authSvc)

	router := gin.New()
	router.Use(RequestLogger(), CORS())
	handler.RegisterRoutes(router)
	return router, db, handler
}

func doJSONRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("unexpected status %d, body: %s", rec.Code, rec.Body.String())
	}
}

func countEntries(t *testing.T, db *sql.DB) int {
	t.Helper()
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM mood_entries`).Scan(&count); err != nil {
		t.Fatalf("count entries: %v", err)
	}
	return count
}

func registerAndLogin(t *testing.T, router *gin.Engine) (int64, map[string]string) {
	t.Helper()
	username := fmt.Sprintf("tester_%d", time.Now().UnixNano())
	password := "pass123"
	regResp := doJSONRequest(t, router, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	assertStatus(t, regResp, http.StatusCreated)

	loginResp := doJSONRequest(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	assertStatus(t, loginResp, http.StatusOK)
	var loginBody struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	decodeJSON(t, loginResp.Body.Bytes(), &loginBody)
	if loginBody.AccessToken == "" {
		t.Fatalf("expected auth token after login")
	}
	authHeader := map[string]string{"Authorization": fmt.Sprintf("Bearer %s", loginBody.AccessToken)}
	return loginBody.User.ID, authHeader
}

// mockCompleter returns a fixed sentiment verdict for classification prompts
// and a fixed reply for everything else.
type mockCompleter struct {
	score string
	reply string
	fail  bool
}

func (m *mockCompleter) Complete(_ context.Context, req completion.Request) (string, error) {
	if m.fail {
		return "", errors.New("mock completion unavailable")
	}
	if strings.Contains(req.System, "Eli") {
		return m.reply, nil
	}
	return fmt.Sprintf(`{"score": %s}`, m.score), nil
}
