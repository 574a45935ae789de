package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"decision-eval/backend/internal/auth"
	"decision-eval/backend/internal/limits"
)

const identityKey = "identity"

// authMiddleware verifies the bearer API key and stashes the caller identity.
// Websocket clients cannot set headers, so a token query parameter is
// accepted as a fallback.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearerToken(c.GetHeader("Authorization"))
		if key == "" {
			key = strings.TrimSpace(c.Query("token"))
		}
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			return
		}
		identity, err := s.keys.Verify(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// requireTier gates a route group to callers at or above the given tier.
func requireTier(min limits.Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identityFrom(c)
		if id == nil || !id.Tier.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient tier for this operation"})
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) *auth.Identity {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := value.(*auth.Identity)
	return id
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
