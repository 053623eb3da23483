package response

import (
	"net/http"

	appErrors "github.com/agoralabs/agora/pkg/errors"
	"github.com/gin-gonic/gin"
)

// Response defines the standard API envelope understood by the Polis frontend.
type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// AuthResponse extends the envelope with the fields auth endpoints return at
// the top level so existing clients can read token and user_id directly.
type AuthResponse struct {
	Status  string      `json:"status"`
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	UserID  int64       `json:"user_id"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a JSON success envelope.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Status: "ok",
		Data:   data,
	})
}

// Auth writes the auth success envelope carrying the bearer token and user id.
func Auth(c *gin.Context, token string, userID int64, data interface{}) {
	c.JSON(http.StatusOK, AuthResponse{
		Status:  "ok",
		Success: true,
		Token:   token,
		UserID:  userID,
		Data:    data,
	})
}

// Raw writes a payload without the envelope. A handful of compatibility
// endpoints (participationInit, conversation listing) must match the original
// wire format exactly, which predates the status/data envelope.
func Raw(c *gin.Context, statusCode int, payload interface{}) {
	c.JSON(statusCode, payload)
}

// Error writes a JSON error envelope derived from an AppError.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, Response{
		Status:  "error",
		Error:   appErr.Code,
		Message: appErr.Message,
	})
}
