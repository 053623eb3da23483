package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/agoralabs/agora/internal/database"
	"github.com/agoralabs/agora/pkg/errors"
	"github.com/agoralabs/agora/pkg/response"
)

// Root answers the API root so clients can probe the server is alive.
func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"message": "API server is running"})
	}
}

// Health returns a simple status payload useful for readiness checks.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}

// TestConnection confirms the HTTP layer round-trips without touching any
// dependency.
func TestConnection() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"connection": "ok"})
	}
}

// TestDatabase pings the backing store.
func TestDatabase(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := database.Ping(db); err != nil {
			response.Error(c, errors.ErrInternalServer.WithInternal(err))
			return
		}
		response.Success(c, http.StatusOK, gin.H{"database": "ok"})
	}
}
