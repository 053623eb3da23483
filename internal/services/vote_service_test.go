package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agoralabs/agora/internal/models"
)

type voteFixture struct {
	*commentFixture
	votes   *VoteService
	voter   *models.Participant
	comment *models.Comment
}

func newVoteFixture(t *testing.T) *voteFixture {
	t.Helper()

	f := newCommentFixture(t)
	votes, err := NewVoteService(f.db, f.conversations)
	require.NoError(t, err)

	ctx := context.Background()
	voter, err := f.participants.GetOrCreateForAnon(ctx, f.conversation.ZID, "anon-voter")
	require.NoError(t, err)

	comment, err := f.comments.Create(ctx, CreateCommentInput{ZID: f.conversation.ZID, PID: f.participant.PID, Txt: "votable"})
	require.NoError(t, err)
	comment, err = f.comments.Moderate(ctx, comment.TID, models.ModApproved, f.owner)
	require.NoError(t, err)

	return &voteFixture{commentFixture: f, votes: votes, voter: voter, comment: comment}
}

func TestVoteService_SubmitValidatesValue(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	_, err := f.votes.Submit(ctx, f.voter.PID, f.comment.TID, 2)
	require.ErrorIs(t, err, ErrInvalidVoteValue)

	for _, value := range []int{models.VoteDisagree, models.VotePass, models.VoteAgree} {
		vote, err := f.votes.Submit(ctx, f.voter.PID, f.comment.TID, value)
		require.NoError(t, err)
		require.Equal(t, value, vote.Value)
	}
}

func TestVoteService_RevoteKeepsOneRow(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	_, err := f.votes.Submit(ctx, f.voter.PID, f.comment.TID, models.VoteAgree)
	require.NoError(t, err)
	_, err = f.votes.Submit(ctx, f.voter.PID, f.comment.TID, models.VoteDisagree)
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.Vote{}).Where("pid = ? AND tid = ?", f.voter.PID, f.comment.TID).Count(&count).Error)
	require.Equal(t, int64(1), count)

	// The tally reflects only the second value.
	tally, err := f.votes.Tally(ctx, f.comment.TID)
	require.NoError(t, err)
	require.Equal(t, int64(0), tally.Agree)
	require.Equal(t, int64(1), tally.Disagree)
	require.Equal(t, int64(0), tally.Pass)

	// vote_count moved once, on the first insert.
	voter, err := f.participants.Get(ctx, f.voter.PID)
	require.NoError(t, err)
	require.Equal(t, 1, voter.VoteCount)
}

func TestVoteService_ExistingRowNeverDoubleCounts(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	// A ballot row that landed outside this service call, as a competing
	// writer's insert would. Submit must treat it as a revote: overwrite
	// the value, leave vote_count untouched.
	require.NoError(t, f.db.Create(&models.Vote{PID: f.voter.PID, TID: f.comment.TID, Value: models.VoteAgree}).Error)

	vote, err := f.votes.Submit(ctx, f.voter.PID, f.comment.TID, models.VoteDisagree)
	require.NoError(t, err)
	require.Equal(t, models.VoteDisagree, vote.Value)

	var count int64
	require.NoError(t, f.db.Model(&models.Vote{}).Where("pid = ? AND tid = ?", f.voter.PID, f.comment.TID).Count(&count).Error)
	require.Equal(t, int64(1), count)

	voter, err := f.participants.Get(ctx, f.voter.PID)
	require.NoError(t, err)
	require.Equal(t, 0, voter.VoteCount)
}

func TestVoteService_RejectsUnapprovedAndMissingComments(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	pending, err := f.comments.Create(ctx, CreateCommentInput{ZID: f.conversation.ZID, PID: f.participant.PID, Txt: "still pending"})
	require.NoError(t, err)

	_, err = f.votes.Submit(ctx, f.voter.PID, pending.TID, models.VoteAgree)
	require.ErrorIs(t, err, ErrCommentNotVotable)

	_, err = f.votes.Submit(ctx, f.voter.PID, 9999, models.VoteAgree)
	require.ErrorIs(t, err, ErrCommentNotVotable)
}

func TestVoteService_ClosedConversationRejectsVotes(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	_, err := f.conversations.SetActive(ctx, f.conversation.ZID, f.owner.UID, false)
	require.NoError(t, err)

	_, err = f.votes.Submit(ctx, f.voter.PID, f.comment.TID, models.VoteAgree)
	require.ErrorIs(t, err, ErrConversationClosed)
}

func TestVoteService_Listings(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	second, err := f.comments.Create(ctx, CreateCommentInput{ZID: f.conversation.ZID, PID: f.participant.PID, Txt: "another"})
	require.NoError(t, err)
	_, err = f.comments.Moderate(ctx, second.TID, models.ModApproved, f.owner)
	require.NoError(t, err)

	_, err = f.votes.Submit(ctx, f.voter.PID, f.comment.TID, models.VoteAgree)
	require.NoError(t, err)
	_, err = f.votes.Submit(ctx, f.voter.PID, second.TID, models.VotePass)
	require.NoError(t, err)

	mine, err := f.votes.VotesForParticipant(ctx, f.voter.PID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, f.comment.TID, mine[0].TID)

	all, err := f.votes.VotesForConversation(ctx, f.conversation.ZID)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestVoteService_TallyCountsPerParticipant(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	other, err := f.participants.GetOrCreateForAnon(ctx, f.conversation.ZID, "anon-other")
	require.NoError(t, err)

	_, err = f.votes.Submit(ctx, f.voter.PID, f.comment.TID, models.VoteAgree)
	require.NoError(t, err)
	_, err = f.votes.Submit(ctx, other.PID, f.comment.TID, models.VoteAgree)
	require.NoError(t, err)

	tally, err := f.votes.Tally(ctx, f.comment.TID)
	require.NoError(t, err)
	require.Equal(t, int64(2), tally.Agree)
	require.Equal(t, int64(0), tally.Disagree)
	require.Equal(t, int64(0), tally.Pass)
}
