package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/agoralabs/agora/internal/middleware"
	"github.com/agoralabs/agora/internal/models"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUser returns the authenticated user loaded by the auth middleware,
// or nil for anonymous requests.
func currentUser(c *gin.Context) *models.User {
	value, ok := c.Get(middleware.CtxUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// currentAnonID returns the anonymous identity resolved from the pc cookie,
// or "" when none was presented.
func currentAnonID(c *gin.Context) string {
	return c.GetString(middleware.CtxAnonIDKey)
}

// currentSessionID returns the session id of the authenticated request.
func currentSessionID(c *gin.Context) string {
	return c.GetString(middleware.CtxSessionIDKey)
}
