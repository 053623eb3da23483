package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agoralabs/agora/internal/services"
	"github.com/agoralabs/agora/pkg/errors"
	"github.com/agoralabs/agora/pkg/response"
)

// VoteHandler serves ballot submission and vote listings.
type VoteHandler struct {
	conversations *services.ConversationService
	participants  *ParticipantHandler
	comments      *services.CommentService
	votes         *services.VoteService
}

func NewVoteHandler(conversations *services.ConversationService, participants *ParticipantHandler, comments *services.CommentService, votes *services.VoteService) *VoteHandler {
	return &VoteHandler{conversations: conversations, participants: participants, comments: comments, votes: votes}
}

type submitVoteRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	TID            uint   `json:"tid" validate:"required"`
	Vote           int    `json:"vote" validate:"oneof=-1 0 1"`
}

// POST /api/v3/votes
func (h *VoteHandler) Submit(c *gin.Context) {
	var req submitVoteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	conversation, err := h.conversations.ResolveInvite(requestContext(c), req.ConversationID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	participant, err := h.participants.joinParticipant(c, conversation.ZID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	vote, err := h.votes.Submit(requestContext(c), participant.PID, req.TID, req.Vote)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	// The frontend advances to the next unvoted comment off this response.
	nextComment, err := h.comments.NextComment(requestContext(c), conversation.ZID, participant.PID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"vote":        vote,
		"nextComment": nextComment,
	})
}

// GET /api/v3/votes
func (h *VoteHandler) List(c *gin.Context) {
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

	votes, err := h.votes.VotesForConversation(requestContext(c), conversation.ZID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, votes)
}

// GET /api/v3/votes/me
func (h *VoteHandler) Mine(c *gin.Context) {
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

	participant, err := h.participants.findParticipant(c, conversation.ZID)
	if err != nil {
		if err == services.ErrParticipantNotFound {
			response.Success(c, http.StatusOK, []any{})
			return
		}
		writeServiceError(c, err)
		return
	}

	votes, err := h.votes.VotesForParticipant(requestContext(c), participant.PID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, votes)
}
