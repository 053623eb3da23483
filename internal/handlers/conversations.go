package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agoralabs/agora/internal/models"
	"github.com/agoralabs/agora/internal/services"
	"github.com/agoralabs/agora/pkg/errors"
	"github.com/agoralabs/agora/pkg/response"
)

// ConversationHandler manages conversation lifecycle endpoints. Clients
// address conversations by their invite code (conversation_id); the numeric
// key never appears on the wire except in owner tooling.
type ConversationHandler struct {
	conversations *services.ConversationService
}

func NewConversationHandler(conversations *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// conversationView is the wire shape: the conversation plus its external id.
type conversationView struct {
	*models.Conversation
	ConversationID string `json:"conversation_id"`
}

func (h *ConversationHandler) view(c *gin.Context, conversation *models.Conversation) (*conversationView, error) {
	invite, err := h.conversations.ActiveInvite(requestContext(c), conversation.ZID, conversation.OwnerUID)
	if err != nil {
		return nil, err
	}
	return &conversationView{Conversation: conversation, ConversationID: invite.Code}, nil
}

// resolveFromQuery loads the conversation named by the conversation_id query
// parameter.
func (h *ConversationHandler) resolveFromQuery(c *gin.Context) (*models.Conversation, bool) {
	code := strings.TrimSpace(c.Query("conversation_id"))
	if code == "" {
		response.Error(c, errors.NewBadRequest("conversation_id is required"))
		return nil, false
	}
	conversation, err := h.conversations.Lookup(requestContext(c), code)
	if err != nil {
		writeServiceError(c, err)
		return nil, false
	}
	return conversation, true
}

type createConversationRequest struct {
	Topic       string `json:"topic" validate:"required,max=1000"`
	Description string `json:"description" validate:"max=10000"`
}

// POST /api/v3/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req createConversationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	conversation, invite, err := h.conversations.Create(requestContext(c), services.CreateConversationInput{
		OwnerUID:    user.UID,
		Topic:       req.Topic,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, conversationView{Conversation: conversation, ConversationID: invite.Code})
}

// GET /api/v3/conversations
//
// Lists the caller's conversations as a bare array for frontend
// compatibility.
func (h *ConversationHandler) List(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	conversations, err := h.conversations.ListOwned(requestContext(c), user.UID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	views := make([]conversationView, 0, len(conversations))
	for i := range conversations {
		view, err := h.view(c, &conversations[i])
		if err != nil {
			writeServiceError(c, err)
			return
		}
		views = append(views, *view)
	}
	response.Raw(c, http.StatusOK, views)
}

type updateConversationRequest struct {
	ConversationID string  `json:"conversation_id" validate:"required"`
	Topic          *string `json:"topic"`
	Description    *string `json:"description"`
	IsActive       *bool   `json:"is_active"`
}

// PUT /api/v3/conversations
func (h *ConversationHandler) Update(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req updateConversationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	conversation, err := h.conversations.Lookup(requestContext(c), req.ConversationID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	updated, err := h.conversations.Update(requestContext(c), conversation.ZID, user.UID, services.UpdateConversationInput{
		Topic:       req.Topic,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	view, err := h.view(c, updated)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

type conversationRefRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
}

func (h *ConversationHandler) setActive(c *gin.Context, active bool) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req conversationRefRequest
	if !bindAndValidate(c, &req) {
		return
	}

	conversation, err := h.conversations.Lookup(requestContext(c), req.ConversationID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	updated, err := h.conversations.SetActive(requestContext(c), conversation.ZID, user.UID, active)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"zid": updated.ZID, "is_active": updated.IsActive})
}

// POST /api/v3/conversation/close
func (h *ConversationHandler) Close(c *gin.Context) {
	h.setActive(c, false)
}

// POST /api/v3/conversation/reopen
func (h *ConversationHandler) Reopen(c *gin.Context) {
	h.setActive(c, true)
}

// GET /api/v3/conversations/preload
//
// Public conversation metadata fetched before a participant joins.
func (h *ConversationHandler) Preload(c *gin.Context) {
	conversation, ok := h.resolveFromQuery(c)
	if !ok {
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"topic":       conversation.Topic,
		"description": conversation.Description,
		"is_active":   conversation.IsActive,
		"created":     conversation.CreatedAt,
	})
}

// GET /api/v3/conversationStats
func (h *ConversationHandler) Stats(c *gin.Context) {
	conversation, ok := h.resolveFromQuery(c)
	if !ok {
		return
	}

	stats, err := h.conversations.Stats(requestContext(c), conversation.ZID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}
