package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agoralabs/agora/internal/database/testutil"
	"github.com/agoralabs/agora/internal/models"
)

type commentFixture struct {
	db            *gorm.DB
	conversations *ConversationService
	participants  *ParticipantService
	comments      *CommentService
	owner         *models.User
	conversation  *models.Conversation
	participant   *models.Participant
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	conversations, err := NewConversationService(db)
	require.NoError(t, err)
	participants, err := NewParticipantService(db)
	require.NoError(t, err)
	comments, err := NewCommentService(db, conversations)
	require.NoError(t, err)

	ctx := context.Background()
	owner := seedOwner(t, db, "owner@example.com")
	conversation, _, err := conversations.Create(ctx, CreateConversationInput{OwnerUID: owner.UID, Topic: "Comments"})
	require.NoError(t, err)
	participant, err := participants.GetOrCreateForUser(ctx, conversation.ZID, owner.UID)
	require.NoError(t, err)

	return &commentFixture{
		db:            db,
		conversations: conversations,
		participants:  participants,
		comments:      comments,
		owner:         owner,
		conversation:  conversation,
		participant:   participant,
	}
}

func TestCommentService_CreateStartsPending(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	comment, err := f.comments.Create(ctx, CreateCommentInput{
		ZID: f.conversation.ZID,
		PID: f.participant.PID,
		Txt: "  We need more bike lanes  ",
	})
	require.NoError(t, err)
	require.Equal(t, models.ModPending, comment.Mod)
	require.Equal(t, "We need more bike lanes", comment.Txt)

	_, err = f.comments.Create(ctx, CreateCommentInput{ZID: f.conversation.ZID, PID: f.participant.PID, Txt: "   "})
	require.ErrorIs(t, err, ErrEmptyComment)
}

func TestCommentService_ClosedConversationRejectsButLists(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	comment, err := f.comments.Create(ctx, CreateCommentInput{ZID: f.conversation.ZID, PID: f.participant.PID, Txt: "before close"})
	require.NoError(t, err)

	_, err = f.conversations.SetActive(ctx, f.conversation.ZID, f.owner.UID, false)
	require.NoError(t, err)

	_, err = f.comments.Create(ctx, CreateCommentInput{ZID: f.conversation.ZID, PID: f.participant.PID, Txt: "after close"})
	require.ErrorIs(t, err, ErrConversationClosed)

	listed, err := f.comments.List(ctx, f.conversation.ZID, ListCommentsOptions{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, comment.TID, listed[0].TID)
}

func TestCommentService_ModerateOwnerGated(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	comment, err := f.comments.Create(ctx, CreateCommentInput{ZID: f.conversation.ZID, PID: f.participant.PID, Txt: "moderate me"})
	require.NoError(t, err)

	stranger := seedOwner(t, f.db, "stranger@example.com")
	_, err = f.comments.Moderate(ctx, comment.TID, models.ModApproved, stranger)
	require.ErrorIs(t, err, ErrNotOwner)

	_, err = f.comments.Moderate(ctx, comment.TID, 5, f.owner)
	require.ErrorIs(t, err, ErrInvalidModeration)

	approved, err := f.comments.Moderate(ctx, comment.TID, models.ModApproved, f.owner)
	require.NoError(t, err)
	require.Equal(t, models.ModApproved, approved.Mod)

	// Admins moderate without owning the conversation.
	admin := &models.User{Email: "admin@example.com", Password: "x", IsAdmin: true, IsActive: true}
	require.NoError(t, f.db.Create(admin).Error)
	rejected, err := f.comments.Moderate(ctx, comment.TID, models.ModRejected, admin)
	require.NoError(t, err)
	require.Equal(t, models.ModRejected, rejected.Mod)
}

func TestCommentService_ListModFilter(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	pending, err := f.comments.Create(ctx, CreateCommentInput{ZID: f.conversation.ZID, PID: f.participant.PID, Txt: "pending"})
	require.NoError(t, err)
	toApprove, err := f.comments.Create(ctx, CreateCommentInput{ZID: f.conversation.ZID, PID: f.participant.PID, Txt: "approved"})
	require.NoError(t, err)
	_, err = f.comments.Moderate(ctx, toApprove.TID, models.ModApproved, f.owner)
	require.NoError(t, err)

	mod := models.ModApproved
	approvedOnly, err := f.comments.List(ctx, f.conversation.ZID, ListCommentsOptions{Mod: &mod})
	require.NoError(t, err)
	require.Len(t, approvedOnly, 1)
	require.Equal(t, toApprove.TID, approvedOnly[0].TID)

	mod = models.ModPending
	pendingOnly, err := f.comments.List(ctx, f.conversation.ZID, ListCommentsOptions{Mod: &mod})
	require.NoError(t, err)
	require.Len(t, pendingOnly, 1)
	require.Equal(t, pending.TID, pendingOnly[0].TID)
}

func TestCommentService_NextComment(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	voter, err := f.participants.GetOrCreateForAnon(ctx, f.conversation.ZID, "anon-voter")
	require.NoError(t, err)

	var approved []*models.Comment
	for _, txt := range []string{"first", "second", "third"} {
		comment, err := f.comments.Create(ctx, CreateCommentInput{ZID: f.conversation.ZID, PID: f.participant.PID, Txt: txt})
		require.NoError(t, err)
		_, err = f.comments.Moderate(ctx, comment.TID, models.ModApproved, f.owner)
		require.NoError(t, err)
		approved = append(approved, comment)
	}
	// One pending comment that must never surface.
	_, err = f.comments.Create(ctx, CreateCommentInput{ZID: f.conversation.ZID, PID: f.participant.PID, Txt: "unmoderated"})
	require.NoError(t, err)

	next, err := f.comments.NextComment(ctx, f.conversation.ZID, voter.PID)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Equal(t, approved[0].TID, next.TID)

	// Voting on the first comment advances the cursor.
	require.NoError(t, f.db.Create(&models.Vote{PID: voter.PID, TID: approved[0].TID, Value: models.VoteAgree}).Error)
	next, err = f.comments.NextComment(ctx, f.conversation.ZID, voter.PID)
	require.NoError(t, err)
	require.Equal(t, approved[1].TID, next.TID)

	// Authors never see their own comments.
	authorNext, err := f.comments.NextComment(ctx, f.conversation.ZID, f.participant.PID)
	require.NoError(t, err)
	require.Nil(t, authorNext)

	// Exhausting the queue yields nil without error.
	for _, comment := range approved[1:] {
		require.NoError(t, f.db.Create(&models.Vote{PID: voter.PID, TID: comment.TID, Value: models.VotePass}).Error)
	}
	next, err = f.comments.NextComment(ctx, f.conversation.ZID, voter.PID)
	require.NoError(t, err)
	require.Nil(t, next)
}
