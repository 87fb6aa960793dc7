package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"moodlog/internal/apperr"
	"moodlog/internal/auth"
	"moodlog/internal/models"
	"moodlog/internal/responder"
	"moodlog/internal/service/journal"
)

// Handler wires HTTP routes to the journal and auth services.
type Handler struct {
	journal *journal.Service
	auth    *auth.Service
}

// NewHandler constructs a Handler instance.
func NewHandler(journalService *journal.Service, authService *auth.Service) *Handler {
	return &Handler{journal: journalService, auth: authService}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.root)

	api := router.Group("/api")
	optional := h.auth.Optional()
	required := h.auth.Required()

	authRoutes := api.Group("/auth")
	authRoutes.POST("/signup", h.signup)
	authRoutes.POST("/login", h.login)
	authRoutes.POST("/verify-password", required, h.verifyPassword)
	authRoutes.POST("/logout", required, h.logout)
	authRoutes.GET("/me", required, h.me)

	api.POST("/chat", optional, h.chat)
	api.POST("/sentiment", h.sentiment)

	api.GET("/entries", optional, h.entries)
	api.GET("/entries/today", optional, h.todayEntries)
	api.GET("/summary/daily", optional, h.dailySummary)
	api.GET("/summary/weekly", optional, h.weeklySummary)
	api.GET("/stats/overview", optional, h.stats)

	api.GET("/settings", required, h.getSettings)
	api.PUT("/settings", required, h.updateSettings)
}

// writeError maps service errors to a JSON body and status. Unexpected
// failures are logged and reported without detail.
func writeError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr.Code == apperr.CodeInternal {
		slog.Error("[HTTP] request failed",
			slog.String("request_id", requestID(c)),
			slog.String("path", c.FullPath()),
			slog.Any("err", err),
		)
	}
	c.JSON(appErr.Status, gin.H{"error": appErr.Message})
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Mood journal API - Eli is ready to chat"})
}

// credentialsRequest serves signup and login. Login accepts either a
// username or an email as the identifier.
type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func (h *Handler) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ctx := c.Request.Context()
	user, err := h.journal.RegisterUser(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := h.journal.GetSettings(ctx, user.ID); err != nil {
		writeError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	user, err := h.journal.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user *models.User) {
	authToken, err := h.auth.IssueToken(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, tokenResponse{AccessToken: authToken, TokenType: "bearer", User: user})
}

func (h *Handler) verifyPassword(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}
	ok, err := h.journal.VerifyPassword(c.Request.Context(), userID, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

func (h *Handler) logout(c *gin.Context) {
	authToken, _ := auth.TokenFromContext(c)
	if err := h.auth.RevokeToken(c.Request.Context(), authToken); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	user, err := h.journal.GetUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type chatRequest struct {
	Message string               `json:"message"`
	History []responder.Exchange `json:"history"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	res, err := h.journal.SubmitMessage(c.Request.Context(), req.Message, auth.OwnerFromContext(c), req.History)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) sentiment(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	res, err := h.journal.Classify(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) entries(c *gin.Context) {
	days := journal.DefaultEntryDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer"})
			return
		}
		days = parsed
	}
	entries, err := h.journal.Entries(c.Request.Context(), auth.OwnerFromContext(c), days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) todayEntries(c *gin.Context) {
	entries, err := h.journal.TodayEntries(c.Request.Context(), auth.OwnerFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) dailySummary(c *gin.Context) {
	summary, err := h.journal.DailySummary(c.Request.Context(), auth.OwnerFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) weeklySummary(c *gin.Context) {
	summary, err := h.journal.WeeklySummary(c.Request.Context(), auth.OwnerFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.journal.Stats(c.Request.Context(), auth.OwnerFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) getSettings(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	st, err := h.journal.GetSettings(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) updateSettings(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	var req journal.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	st, err := h.journal.UpdateSettings(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
