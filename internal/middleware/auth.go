package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/agoralabs/agora/internal/auth"
	"github.com/agoralabs/agora/pkg/errors"
	"github.com/agoralabs/agora/pkg/response"
)

const (
	CtxUserKey      = "authUser"
	CtxClaimsKey    = "authClaims"
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"
	CtxAnonIDKey    = "anonID"

	// SessionCookie carries the session JWT for browser clients.
	SessionCookie = "token2"
	// UserIDCookie mirrors the numeric user id next to the session cookie.
	UserIDCookie = "uid2"
	// AnonCookie carries the signed anonymous identity token.
	AnonCookie = "pc"
)

// sessionToken extracts the session JWT from the Authorization header or,
// failing that, the session cookie. The bearer header wins when both are
// present.
func sessionToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// Auth enforces an authenticated session and loads the user into the
// request context.
func Auth(sessions *iauth.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, claims, err := sessions.Authenticate(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxUserKey, user)
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, user.UID)
		if claims.SessionID != "" {
			c.Set(CtxSessionIDKey, claims.SessionID)
		}

		c.Next()
	}
}

// OptionalAuth loads the user when a valid session is presented but lets
// unauthenticated requests through. It also resolves the anonymous identity
// cookie so participation endpoints can serve both caller kinds.
func OptionalAuth(sessions *iauth.SessionService, jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := sessionToken(c); token != "" {
			if user, claims, err := sessions.Authenticate(token); err == nil {
				c.Set(CtxUserKey, user)
				c.Set(CtxClaimsKey, claims)
				c.Set(CtxUserIDKey, user.UID)
				if claims.SessionID != "" {
					c.Set(CtxSessionIDKey, claims.SessionID)
				}
			}
		}

		if cookie, err := c.Cookie(AnonCookie); err == nil && cookie != "" {
			if anonID, err := jwt.ValidateAnonToken(cookie); err == nil {
				c.Set(CtxAnonIDKey, anonID)
			}
		}

		c.Next()
	}
}
