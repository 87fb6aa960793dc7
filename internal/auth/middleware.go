package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"moodlog/internal/apperr"
	"moodlog/internal/models"
)

const (
	ownerContextKey     = "journal_owner"
	authTokenContextKey = "auth_token"
	bearerScheme        = "bearer "
)

// Required rejects requests without a valid bearer token and stores the
// authenticated owner in the context.
func (s *Service) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		authToken := s.extractToken(c)
		userID, err := s.Require(c.Request.Context(), authToken)
		if err != nil {
			appErr := apperr.From(err)
			c.AbortWithStatusJSON(appErr.Status, gin.H{"error": appErr.Message})
			return
		}
		setOwner(c, models.UserOwner(userID), authToken)
		c.Next()
	}
}

// Optional never rejects. A bad or missing token leaves the caller a guest.
func (s *Service) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		authToken := s.extractToken(c)
		setOwner(c, s.Resolve(c.Request.Context(), authToken), authToken)
		c.Next()
	}
}

func setOwner(c *gin.Context, owner models.Owner, authToken string) {
	c.Set(ownerContextKey, owner)
	if !owner.IsGuest() {
		c.Set(authTokenContextKey, authToken)
	}
}

// OwnerFromContext returns the journal owner resolved by the middleware, or
// the guest when none ran.
func OwnerFromContext(c *gin.Context) models.Owner {
	val, ok := c.Get(ownerContextKey)
	if !ok {
		return models.Guest()
	}
	owner, _ := val.(models.Owner)
	return owner
}

// UserIDFromContext reports the authenticated user id; false for guests.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	owner := OwnerFromContext(c)
	return owner.UserID, !owner.IsGuest()
}

// TokenFromContext retrieves the bearer token of an authenticated request.
func TokenFromContext(c *gin.Context) (string, bool) {
	token := c.GetString(authTokenContextKey)
	return token, token != ""
}

func (s *Service) extractToken(c *gin.Context) string {
	header := c.GetHeader(s.headerName)
	if len(header) <= len(bearerScheme) || !strings.EqualFold(header[:len(bearerScheme)], bearerScheme) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerScheme):])
}
