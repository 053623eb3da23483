package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agoralabs/agora/internal/services"
	"github.com/agoralabs/agora/pkg/errors"
	"github.com/agoralabs/agora/pkg/response"
)

// CommentHandler serves comment submission, listing, moderation and the
// next-comment cursor.
type CommentHandler struct {
	conversations *services.ConversationService
	participants  *ParticipantHandler
	comments      *services.CommentService
}

func NewCommentHandler(conversations *services.ConversationService, participants *ParticipantHandler, comments *services.CommentService) *CommentHandler {
	return &CommentHandler{conversations: conversations, participants: participants, comments: comments}
}

type createCommentRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Txt            string `json:"txt" validate:"required,max=1000"`
	IsSeed         bool   `json:"is_seed"`
}

// POST /api/v3/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req createCommentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	conversation, err := h.conversations.ResolveInvite(requestContext(c), req.ConversationID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	// Seed comments come from the owner while setting up the conversation.
	isSeed := false
	if req.IsSeed {
		user := currentUser(c)
		isSeed = user != nil && (user.UID == conversation.OwnerUID || user.IsAdmin)
	}

	participant, err := h.participants.joinParticipant(c, conversation.ZID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	comment, err := h.comments.Create(requestContext(c), services.CreateCommentInput{
		ZID:    conversation.ZID,
		PID:    participant.PID,
		Txt:    req.Txt,
		IsSeed: isSeed,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, comment)
}

// GET /api/v3/comments
func (h *CommentHandler) List(c *gin.Context) {
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

	var opts services.ListCommentsOptions
	if raw := strings.TrimSpace(c.Query("moderation")); raw != "" {
		mod, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, errors.NewBadRequest("moderation must be -1, 0 or 1"))
			return
		}
		opts.Mod = &mod
	}

	comments, err := h.comments.List(requestContext(c), conversation.ZID, opts)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, comments)
}

type moderateCommentRequest struct {
	TID uint `json:"tid" validate:"required"`
	Mod int  `json:"mod" validate:"oneof=-1 0 1"`
}

// PUT /api/v3/comments
func (h *CommentHandler) Moderate(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req moderateCommentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	comment, err := h.comments.Moderate(requestContext(c), req.TID, req.Mod, user)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, comment)
}

// GET /api/v3/nextComment
func (h *CommentHandler) Next(c *gin.Context) {
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

	participant, err := h.participants.joinParticipant(c, conversation.ZID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	comment, err := h.comments.NextComment(requestContext(c), conversation.ZID, participant.PID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if comment == nil {
		// Nothing left to vote on.
		response.Success(c, http.StatusOK, gin.H{})
		return
	}
	response.Success(c, http.StatusOK, comment)
}
