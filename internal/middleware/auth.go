package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"sitevis/internal/identity"
)

const (
	UserIDKey   = "user_id"
	IdentityKey = "identity"
	TokenKey    = "access_token"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// verified identity in the gin context.
func RequireAuth(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err})
			return
		}

		id, verr := provider.Verify(c.Request.Context(), token)
		if verr != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid token",
				"message": verr.Error(),
			})
			return
		}

		setIdentity(c, token, id)
		c.Next()
	}
}

// OptionalAuth stores the identity when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := bearerToken(c); err == "" {
			if id, verr := provider.Verify(c.Request.Context(), token); verr == nil {
				setIdentity(c, token, id)
			}
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity set by RequireAuth or OptionalAuth.
func CurrentIdentity(c *gin.Context) (identity.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return identity.Identity{}, false
	}
	id, ok := v.(identity.Identity)
	return id, ok
}

func setIdentity(c *gin.Context, token string, id identity.Identity) {
	c.Set(UserIDKey, id.UserID)
	c.Set(IdentityKey, id)
	c.Set(TokenKey, token)
}

func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "missing authorization header"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "invalid authorization header format"
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}
