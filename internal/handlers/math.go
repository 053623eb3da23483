package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agoralabs/agora/internal/services"
	"github.com/agoralabs/agora/pkg/errors"
	"github.com/agoralabs/agora/pkg/response"
)

// MathHandler answers the PCA endpoints with the fixed empty payload shape
// the frontend expects. No projection is computed here; the frontend treats
// an empty result as "math not ready yet" and polls again.
type MathHandler struct {
	conversations *services.ConversationService
}

func NewMathHandler(conversations *services.ConversationService) *MathHandler {
	return &MathHandler{conversations: conversations}
}

func (h *MathHandler) emptyPayload(zid uint) gin.H {
	return gin.H{
		"zid":       zid,
		"math_tick": 0,
		"pca":       nil,
		"base-clusters": gin.H{
			"x":       []any{},
			"y":       []any{},
			"id":      []any{},
			"members": []any{},
			"count":   []any{},
		},
		"group-clusters": []any{},
		"consensus": gin.H{
			"agree":    []any{},
			"disagree": []any{},
		},
		"n":                     0,
		"n-cmts":                0,
		"in-conv":               []any{},
		"mod-in":                []any{},
		"mod-out":               []any{},
		"votes-base":            gin.H{},
		"user-vote-counts":      gin.H{},
		"comment-priorities":    gin.H{},
		"group-aware-consensus": gin.H{},
		"lastModTimestamp":      nil,
		"lastVoteTimestamp":     0,
	}
}

// GET /api/v3/math/pca
// GET /api/v3/math/pca2
func (h *MathHandler) PCA(c *gin.Context) {
	code := strings.TrimSpace(c.Query("conversation_id"))
	if code == "" {
		response.Error(c, errors.NewBadRequest("conversation_id is required"))
		return
	}

	conversation, err := h.conversations.Lookup(requestContext(c), code)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Raw(c, http.StatusOK, h.emptyPayload(conversation.ZID))
}
