package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agoralabs/agora/internal/models"
	"github.com/agoralabs/agora/pkg/metrics"
)

var (
	// ErrInvalidVoteValue rejects vote values outside {-1, 0, 1}.
	ErrInvalidVoteValue = errors.New("vote service: vote value must be -1, 0 or 1")
	// ErrCommentNotVotable signals a vote against a comment that is missing
	// or not approved.
	ErrCommentNotVotable = errors.New("vote service: comment is not open for voting")
)

// VoteService owns the voting ledger: one row per (participant, comment),
// resubmission overwrites.
type VoteService struct {
	db            *gorm.DB
	conversations *ConversationService
}

// NewVoteService constructs a VoteService.
func NewVoteService(db *gorm.DB, conversations *ConversationService) (*VoteService, error) {
	if db == nil {
		return nil, errors.New("vote service: db is required")
	}
	if conversations == nil {
		return nil, errors.New("vote service: conversation service is required")
	}
	return &VoteService{db: db, conversations: conversations}, nil
}

// Submit records or overwrites a participant's vote on an approved comment
// in an open conversation.
func (s *VoteService) Submit(ctx context.Context, pid, tid uint, value int) (*models.Vote, error) {
	switch value {
	case models.VoteDisagree, models.VotePass, models.VoteAgree:
	default:
		metrics.VotesRecorded.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidVoteValue
	}

	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, "tid = ?", tid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.VotesRecorded.WithLabelValues("rejected").Inc()
			return nil, ErrCommentNotVotable
		}
		return nil, fmt.Errorf("vote service: load comment: %w", err)
	}
	if comment.Mod != models.ModApproved {
		metrics.VotesRecorded.WithLabelValues("rejected").Inc()
		return nil, ErrCommentNotVotable
	}

	conversation, err := s.conversations.Get(ctx, comment.ZID)
	if err != nil {
		return nil, err
	}
	if !conversation.IsActive {
		metrics.VotesRecorded.WithLabelValues("rejected").Inc()
		return nil, ErrConversationClosed
	}

	vote := models.Vote{PID: pid, TID: tid, Value: value}
	var created bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Derive "first vote" from the insert's own effect: of two
		// concurrent first votes exactly one insert lands, so the ballot
		// count moves exactly once.
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pid"}, {Name: "tid"}},
			DoNothing: true,
		}).Create(&vote)
		if result.Error != nil {
			return fmt.Errorf("vote service: insert vote: %w", result.Error)
		}
		created = result.RowsAffected == 1

		if !created {
			if err := tx.Model(&models.Vote{}).
				Where("pid = ? AND tid = ?", pid, tid).
				Update("value", value).Error; err != nil {
				return fmt.Errorf("vote service: overwrite vote: %w", err)
			}
		}

		// Reload so callers see the canonical row whether we inserted or
		// overwrote.
		if err := tx.First(&vote, "pid = ? AND tid = ?", pid, tid).Error; err != nil {
			return fmt.Errorf("vote service: reload vote: %w", err)
		}

		// The ballot count moves only on first insert, never on revote.
		if created {
			if err := tx.Model(&models.Participant{}).
				Where("pid = ?", pid).
				UpdateColumn("vote_count", gorm.Expr("vote_count + 1")).Error; err != nil {
				return fmt.Errorf("vote service: bump vote count: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		metrics.VotesRecorded.WithLabelValues("created").Inc()
	} else {
		metrics.VotesRecorded.WithLabelValues("updated").Inc()
	}
	return &vote, nil
}

// VotesForParticipant returns every vote a participant has cast, oldest
// first.
func (s *VoteService) VotesForParticipant(ctx context.Context, pid uint) ([]models.Vote, error) {
	var votes []models.Vote
	if err := s.db.WithContext(ctx).
		Where("pid = ?", pid).
		Order("vid ASC").
		Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("vote service: list votes: %w", err)
	}
	return votes, nil
}

// VotesForConversation returns all votes cast in a conversation, oldest
// first.
func (s *VoteService) VotesForConversation(ctx context.Context, zid uint) ([]models.Vote, error) {
	var votes []models.Vote
	if err := s.db.WithContext(ctx).
		Joins("JOIN comments ON comments.tid = votes.tid").
		Where("comments.zid = ?", zid).
		Order("votes.vid ASC").
		Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("vote service: list conversation votes: %w", err)
	}
	return votes, nil
}

// VoteTally summarises the ballots on one comment.
type VoteTally struct {
	TID      uint  `json:"tid"`
	Agree    int64 `json:"agree"`
	Disagree int64 `json:"disagree"`
	Pass     int64 `json:"pass"`
}

// Tally counts agree, disagree and pass ballots for a comment. The unique
// ballot index guarantees one counted vote per participant.
func (s *VoteService) Tally(ctx context.Context, tid uint) (*VoteTally, error) {
	tally := VoteTally{TID: tid}
	db := s.db.WithContext(ctx).Model(&models.Vote{})

	type row struct {
		Value int
		N     int64
	}
	var rows []row
	if err := db.Select("value, COUNT(*) AS n").
		Where("tid = ?", tid).
		Group("value").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("vote service: tally votes: %w", err)
	}

	for _, r := range rows {
		switch r.Value {
		case models.VoteAgree:
			tally.Agree = r.N
		case models.VoteDisagree:
			tally.Disagree = r.N
		case models.VotePass:
			tally.Pass = r.N
		}
	}
	return &tally, nil
}
