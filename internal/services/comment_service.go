package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/agoralabs/agora/internal/models"
	"github.com/agoralabs/agora/pkg/metrics"
)

var (
	// ErrCommentNotFound indicates the requested comment does not exist.
	ErrCommentNotFound = errors.New("comment service: comment not found")
	// ErrConversationClosed signals a mutation against a closed conversation.
	ErrConversationClosed = errors.New("comment service: conversation is closed")
	// ErrEmptyComment rejects blank comment text.
	ErrEmptyComment = errors.New("comment service: comment text is required")
	// ErrInvalidModeration rejects moderation values outside {-1, 0, 1}.
	ErrInvalidModeration = errors.New("comment service: invalid moderation state")
)

// CommentService manages the comment lifecycle from submission through
// moderation.
type CommentService struct {
	db            *gorm.DB
	conversations *ConversationService
}

// NewCommentService constructs a CommentService.
func NewCommentService(db *gorm.DB, conversations *ConversationService) (*CommentService, error) {
	if db == nil {
		return nil, errors.New("comment service: db is required")
	}
	if conversations == nil {
		return nil, errors.New("comment service: conversation service is required")
	}
	return &CommentService{db: db, conversations: conversations}, nil
}

// CreateCommentInput captures a comment submission.
type CreateCommentInput struct {
	ZID    uint
	PID    uint
	Txt    string
	IsSeed bool
}

// Create submits a comment into moderation. Closed conversations reject the
// submission while remaining readable.
func (s *CommentService) Create(ctx context.Context, input CreateCommentInput) (*models.Comment, error) {
	txt := strings.TrimSpace(input.Txt)
	if txt == "" {
		return nil, ErrEmptyComment
	}

	conversation, err := s.conversations.Get(ctx, input.ZID)
	if err != nil {
		return nil, err
	}
	if !conversation.IsActive {
		return nil, ErrConversationClosed
	}

	comment := models.Comment{
		ZID:    input.ZID,
		PID:    input.PID,
		Txt:    txt,
		Mod:    models.ModPending,
		IsSeed: input.IsSeed,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("comment service: create comment: %w", err)
	}

	metrics.CommentsSubmitted.Inc()
	return &comment, nil
}

// Get loads a comment by its numeric key.
func (s *CommentService) Get(ctx context.Context, tid uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, "tid = ?", tid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("comment service: load comment: %w", err)
	}
	return &comment, nil
}

// ListCommentsOptions controls comment listing.
type ListCommentsOptions struct {
	// Mod filters by moderation state when non-nil.
	Mod *int
}

// List returns a conversation's comments in submission order, optionally
// filtered by moderation state. Listing works on closed conversations.
func (s *CommentService) List(ctx context.Context, zid uint, opts ListCommentsOptions) ([]models.Comment, error) {
	q := s.db.WithContext(ctx).Where("zid = ?", zid)
	if opts.Mod != nil {
		q = q.Where("mod_status = ?", *opts.Mod)
	}

	var comments []models.Comment
	if err := q.Order("tid ASC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("comment service: list comments: %w", err)
	}
	return comments, nil
}

// Moderate transitions a comment's moderation state. Only the conversation
// owner or an admin may moderate.
func (s *CommentService) Moderate(ctx context.Context, tid uint, mod int, caller *models.User) (*models.Comment, error) {
	switch mod {
	case models.ModRejected, models.ModPending, models.ModApproved:
	default:
		return nil, ErrInvalidModeration
	}

	comment, err := s.Get(ctx, tid)
	if err != nil {
		return nil, err
	}

	conversation, err := s.conversations.Get(ctx, comment.ZID)
	if err != nil {
		return nil, err
	}
	if caller == nil || (conversation.OwnerUID != caller.UID && !caller.IsAdmin) {
		return nil, ErrNotOwner
	}

	if err := s.db.WithContext(ctx).Model(comment).Update("mod_status", mod).Error; err != nil {
		return nil, fmt.Errorf("comment service: moderate comment: %w", err)
	}
	comment.Mod = mod
	return comment, nil
}

// NextComment returns the approved comment with the lowest tid that the
// participant has neither authored nor voted on. A nil result with nil error
// means the participant has seen everything.
func (s *CommentService) NextComment(ctx context.Context, zid, pid uint) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).
		Where("zid = ? AND mod_status = ? AND pid <> ?", zid, models.ModApproved, pid).
		Where("tid NOT IN (?)", s.db.Model(&models.Vote{}).Select("tid").Where("pid = ?", pid)).
		Order("tid ASC").
		First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("comment service: next comment: %w", err)
	}
	return &comment, nil
}
