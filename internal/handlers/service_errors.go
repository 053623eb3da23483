package handlers

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/agoralabs/agora/internal/services"
	"github.com/agoralabs/agora/pkg/errors"
	"github.com/agoralabs/agora/pkg/response"
)

// writeServiceError translates service sentinel errors into the API error
// envelope. Anything unrecognised becomes a 500.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, services.ErrConversationNotFound),
		stderrors.Is(err, services.ErrCommentNotFound),
		stderrors.Is(err, services.ErrParticipantNotFound),
		stderrors.Is(err, services.ErrCommentNotVotable):
		response.Error(c, errors.ErrNotFound)
	case stderrors.Is(err, services.ErrNotOwner):
		response.Error(c, errors.ErrForbidden)
	case stderrors.Is(err, services.ErrConversationClosed):
		response.Error(c, errors.ErrConversationClosed)
	case stderrors.Is(err, services.ErrInvalidVoteValue),
		stderrors.Is(err, services.ErrEmptyComment),
		stderrors.Is(err, services.ErrInvalidModeration):
		response.Error(c, errors.NewBadRequest(err.Error()))
	default:
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
	}
}
