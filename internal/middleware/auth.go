package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"edupanel/internal/security"
)

const (
	// CookieName carries the session token.
	CookieName = "token"

	claimsKey = "session_claims"
)

type TokenAuthenticator interface {
	Authenticate(token string) (*security.SessionClaims, error)
}

// Auth reads the session cookie, falling back to a Bearer header, and
// stores the verified claims on the context.
func Auth(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		claims, err := auth.Authenticate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		c.Set(claimsKey, claims)
		ctx := zerolog.Ctx(c.Request.Context()).With().Str("account_id", claims.AccountID).Logger().WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Claims returns the claims stored by Auth.
func Claims(c *gin.Context) (*security.SessionClaims, bool) {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*security.SessionClaims)
	return claims, ok && claims != nil
}
