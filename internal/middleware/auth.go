package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lalith-99/tunevault/internal/auth"
	"github.com/lalith-99/tunevault/internal/identity"
)

// ContextKeyIdentity is where the middleware stores the acting identity in
// gin's per-request context. Handlers read it through GetIdentity — a
// constant instead of an inline string so a typo fails to compile rather
// than silently returning nil.
const ContextKeyIdentity = "identity"

// AuthMiddleware validates the Bearer token and builds the per-request
// Identity. If the token is missing or invalid the chain aborts with 401 and
// the handler never runs; otherwise the identity is the only thing handlers
// ever consult about "who is calling".
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected: Bearer <token>",
			})
			return
		}

		id, err := auth.ParseToken(parts[1], secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyIdentity, id)
		c.Next()
	}
}

// GetIdentity returns the identity stored by AuthMiddleware. The zero
// Identity (no tenant, no role) is returned if the middleware didn't run;
// the policy engine denies it on every operation.
func GetIdentity(c *gin.Context) identity.Identity {
	val, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return identity.Identity{}
	}
	id, ok := val.(identity.Identity)
	if !ok {
		return identity.Identity{}
	}
	return id
}
