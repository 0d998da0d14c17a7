package auth

import (
	"dm-chat/errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	EmailKey  contextKey = "email"
)

// TokenVerifier is the part of the TokenService needed to guard a transport.
type TokenVerifier interface {
	Verify(tokenString string) (*CustomClaims, error)
}

// RequireToken guards protected routes with the session cookie.
// Missing token aborts with 401, an invalid or expired one with 403,
// before any handler body runs.
func RequireToken(verifier TokenVerifier, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(TokenCookieName)

		claims, err := verifier.Verify(token)
		if err != nil {
			log.Debug("Request rejected by token guard",
				"path", c.FullPath(),
				"error", err)
			c.AbortWithStatusJSON(errors.HTTPStatus(err), gin.H{"message": RejectionMessage(err)})
			return
		}

		// Inject user identity for downstream handlers
		c.Set(string(UserIDKey), claims.UserID)
		c.Set(string(EmailKey), claims.Email)
		c.Next()
	}
}

// RejectionMessage is the fixed text sent back for an authentication failure.
// The jwt cause stays in the logs.
func RejectionMessage(err error) string {
	if errors.HTTPStatus(err) == http.StatusUnauthorized {
		return "Not authenticated"
	}
	return "Invalid or expired token"
}

// UserID returns the identity injected by RequireToken.
func UserID(c *gin.Context) string {
	return c.GetString(string(UserIDKey))
}

// Email returns the email claim injected by RequireToken.
func Email(c *gin.Context) string {
	return c.GetString(string(EmailKey))
}
