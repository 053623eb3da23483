package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agoralabs/agora/internal/services"
	"github.com/agoralabs/agora/pkg/errors"
	"github.com/agoralabs/agora/pkg/response"
)

// InviteHandler exposes owner tooling for invite codes, addressed by the
// numeric conversation key.
type InviteHandler struct {
	conversations *services.ConversationService
}

func NewInviteHandler(conversations *services.ConversationService) *InviteHandler {
	return &InviteHandler{conversations: conversations}
}

func parseZID(c *gin.Context) (uint, bool) {
	zid, err := strconv.ParseUint(c.Param("zid"), 10, 32)
	if err != nil || zid == 0 {
		response.Error(c, errors.NewBadRequest("zid must be a positive integer"))
		return 0, false
	}
	return uint(zid), true
}

// GET /api/v3/zinvites/:zid
//
// Returns the active invite code, minting one lazily. Owner or admin.
func (h *InviteHandler) Get(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	zid, ok := parseZID(c)
	if !ok {
		return
	}

	conversation, err := h.conversations.Get(requestContext(c), zid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if conversation.OwnerUID != user.UID && !user.IsAdmin {
		response.Error(c, errors.ErrForbidden)
		return
	}

	invite, err := h.conversations.ActiveInvite(requestContext(c), zid, user.UID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"zinvite": invite.Code, "zid": zid})
}

// POST /api/v3/zinvites/:zid
//
// Rotates the invite code: the old code stops resolving, participants keep
// their state under the unchanged numeric key.
func (h *InviteHandler) Rotate(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	zid, ok := parseZID(c)
	if !ok {
		return
	}

	invite, err := h.conversations.RotateInvite(requestContext(c), zid, user)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"zinvite": invite.Code, "zid": zid})
}
