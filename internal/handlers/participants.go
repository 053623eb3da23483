package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/agoralabs/agora/internal/auth"
	"github.com/agoralabs/agora/internal/middleware"
	"github.com/agoralabs/agora/internal/models"
	"github.com/agoralabs/agora/internal/services"
	"github.com/agoralabs/agora/pkg/errors"
	"github.com/agoralabs/agora/pkg/response"
)

// anonCookieMaxAge keeps the anonymous identity stable for a year.
const anonCookieMaxAge = 365 * 24 * 60 * 60

// ParticipantHandler manages joining conversations and the aggregate
// participation bootstrap.
type ParticipantHandler struct {
	jwt           *iauth.JWTService
	conversations *services.ConversationService
	participants  *services.ParticipantService
	comments      *services.CommentService
	votes         *services.VoteService
}

func NewParticipantHandler(
	jwt *iauth.JWTService,
	conversations *services.ConversationService,
	participants *services.ParticipantService,
	comments *services.CommentService,
	votes *services.VoteService,
) *ParticipantHandler {
	return &ParticipantHandler{
		jwt:           jwt,
		conversations: conversations,
		participants:  participants,
		comments:      comments,
		votes:         votes,
	}
}

// ensureIdentity returns the caller's anon id, minting a fresh signed
// identity cookie when the request carries neither a session nor a pc
// cookie. Authenticated callers never need one.
func (h *ParticipantHandler) ensureIdentity(c *gin.Context) (string, error) {
	if anonID := currentAnonID(c); anonID != "" {
		return anonID, nil
	}

	token, anonID, err := h.jwt.GenerateAnonToken()
	if err != nil {
		return "", err
	}
	c.SetCookie(middleware.AnonCookie, token, anonCookieMaxAge, "/", "", false, true)
	return anonID, nil
}

// joinParticipant resolves or creates the participant row for the caller,
// authenticated or anonymous.
func (h *ParticipantHandler) joinParticipant(c *gin.Context, zid uint) (*models.Participant, error) {
	if user := currentUser(c); user != nil {
		return h.participants.GetOrCreateForUser(requestContext(c), zid, user.UID)
	}

	anonID, err := h.ensureIdentity(c)
	if err != nil {
		return nil, err
	}
	return h.participants.GetOrCreateForAnon(requestContext(c), zid, anonID)
}

// findParticipant looks up the caller's existing participant row without
// creating one.
func (h *ParticipantHandler) findParticipant(c *gin.Context, zid uint) (*models.Participant, error) {
	if user := currentUser(c); user != nil {
		return h.participants.FindForUser(requestContext(c), zid, user.UID)
	}
	if anonID := currentAnonID(c); anonID != "" {
		return h.participants.FindForAnon(requestContext(c), zid, anonID)
	}
	return nil, services.ErrParticipantNotFound
}

// GET /api/v3/participants
func (h *ParticipantHandler) Get(c *gin.Context) {
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

	participant, err := h.findParticipant(c, conversation.ZID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, participant)
}

// POST /api/v3/participants
// POST /api/v3/joinWithInvite
func (h *ParticipantHandler) Join(c *gin.Context) {
	var req conversationRefRequest
	if !bindAndValidate(c, &req) {
		return
	}

	conversation, err := h.conversations.ResolveInvite(requestContext(c), req.ConversationID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	participant, err := h.joinParticipant(c, conversation.ZID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, participant)
}

// GET /api/v3/participationInit
//
// The aggregate bootstrap the frontend loads on conversation entry. The
// payload shape predates the standard envelope and is served raw.
func (h *ParticipantHandler) ParticipationInit(c *gin.Context) {
	code := strings.TrimSpace(c.Query("conversation_id"))
	if code == "" {
		response.Error(c, errors.NewBadRequest("conversation_id is required"))
		return
	}

	conversation, err := h.conversations.ResolveInvite(requestContext(c), code)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	participant, err := h.joinParticipant(c, conversation.ZID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	nextComment, err := h.comments.NextComment(requestContext(c), conversation.ZID, participant.PID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	votes, err := h.votes.VotesForParticipant(requestContext(c), participant.PID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	payload := gin.H{
		"user":        currentUser(c),
		"ptpt":        participant,
		"nextComment": nextComment,
		"conversation": gin.H{
			"topic":        conversation.Topic,
			"description":  conversation.Description,
			"is_active":    conversation.IsActive,
			"created":      conversation.CreatedAt,
			"translations": []any{},
		},
		"votes":          votes,
		"pca":            nil,
		"famous":         nil,
		"acceptLanguage": c.GetHeader("Accept-Language"),
	}
	response.Raw(c, http.StatusOK, payload)
}
