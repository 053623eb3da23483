package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/agoralabs/agora/pkg/errors"
	"github.com/agoralabs/agora/pkg/response"
)

// UserHandler serves the current account's profile.
type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GET /api/v3/users
func (h *UserHandler) Get(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	response.Success(c, http.StatusOK, user)
}

type updateUserRequest struct {
	HName string `json:"hname" validate:"required,max=128"`
}

// PUT /api/v3/users
func (h *UserHandler) Update(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req updateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	hname := strings.TrimSpace(req.HName)
	if err := h.db.Model(user).Update("hname", hname).Error; err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	user.HName = hname
	response.Success(c, http.StatusOK, user)
}
