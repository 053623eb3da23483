package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/agoralabs/agora/internal/database"
	"github.com/agoralabs/agora/internal/models"
	"github.com/agoralabs/agora/pkg/crypto"
)

const defaultInviteCodeBytes = 16

var (
	// ErrConversationNotFound indicates no conversation matches the key or code.
	ErrConversationNotFound = errors.New("conversation service: conversation not found")
	// ErrNotOwner signals the caller does not own the conversation.
	ErrNotOwner = errors.New("conversation service: caller is not the owner")
)

// ConversationOption customises ConversationService behaviour.
type ConversationOption func(*ConversationService)

// WithInviteCodeSize adjusts the random invite code length in bytes.
func WithInviteCodeSize(size int) ConversationOption {
	return func(s *ConversationService) {
		if size > 0 {
			s.codeLength = size
		}
	}
}

// WithConversationClock injects a custom clock primarily for testing.
func WithConversationClock(clock func() time.Time) ConversationOption {
	return func(s *ConversationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// ConversationService owns conversation lifecycle and the translation
// between external invite codes and numeric conversation keys.
type ConversationService struct {
	db         *gorm.DB
	codeLength int
	now        func() time.Time
}

// NewConversationService constructs a ConversationService.
func NewConversationService(db *gorm.DB, opts ...ConversationOption) (*ConversationService, error) {
	if db == nil {
		return nil, errors.New("conversation service: db is required")
	}

	service := &ConversationService{
		db:         db,
		codeLength: defaultInviteCodeBytes,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// CreateConversationInput captures the fields required to open a conversation.
type CreateConversationInput struct {
	OwnerUID    uint
	Topic       string
	Description string
	Settings    datatypes.JSON
}

// UpdateConversationInput describes mutable conversation fields. A nil
// pointer indicates no change.
type UpdateConversationInput struct {
	Topic       *string
	Description *string
	IsActive    *bool
}

// Create persists a new conversation and mints its first invite code.
func (s *ConversationService) Create(ctx context.Context, input CreateConversationInput) (*models.Conversation, *models.ConversationInvite, error) {
	if input.OwnerUID == 0 {
		return nil, nil, errors.New("conversation service: owner is required")
	}

	conversation := models.Conversation{
		OwnerUID:    input.OwnerUID,
		Topic:       strings.TrimSpace(input.Topic),
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
		Settings:    input.Settings,
	}

	var invite *models.ConversationInvite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conversation).Error; err != nil {
			return fmt.Errorf("conversation service: create conversation: %w", err)
		}
		created, err := s.createInvite(tx, conversation.ZID, input.OwnerUID)
		if err != nil {
			return err
		}
		invite = created
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &conversation, invite, nil
}

// Get loads a conversation by its numeric key.
func (s *ConversationService) Get(ctx context.Context, zid uint) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := s.db.WithContext(ctx).First(&conversation, "zid = ?", zid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("conversation service: load conversation: %w", err)
	}
	return &conversation, nil
}

// ListOwned returns all conversations owned by the user, newest first.
func (s *ConversationService) ListOwned(ctx context.Context, ownerUID uint) ([]models.Conversation, error) {
	var conversations []models.Conversation
	if err := s.db.WithContext(ctx).
		Where("owner_uid = ?", ownerUID).
		Order("zid DESC").
		Find(&conversations).Error; err != nil {
		return nil, fmt.Errorf("conversation service: list conversations: %w", err)
	}
	return conversations, nil
}

// Update applies owner-gated changes to topic, description or the open flag.
func (s *ConversationService) Update(ctx context.Context, zid, callerUID uint, input UpdateConversationInput) (*models.Conversation, error) {
	conversation, err := s.Get(ctx, zid)
	if err != nil {
		return nil, err
	}
	if conversation.OwnerUID != callerUID {
		return nil, ErrNotOwner
	}

	updates := map[string]any{}
	if input.Topic != nil {
		updates["topic"] = strings.TrimSpace(*input.Topic)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return conversation, nil
	}

	if err := s.db.WithContext(ctx).Model(conversation).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("conversation service: update conversation: %w", err)
	}
	return s.Get(ctx, zid)
}

// SetActive flips the open/closed flag. Closing rejects new comments and
// votes while keeping the conversation readable.
func (s *ConversationService) SetActive(ctx context.Context, zid, callerUID uint, active bool) (*models.Conversation, error) {
	return s.Update(ctx, zid, callerUID, UpdateConversationInput{IsActive: &active})
}

// Lookup translates an external invite code to its conversation without
// touching the use counter.
func (s *ConversationService) Lookup(ctx context.Context, code string) (*models.Conversation, error) {
	invite, err := s.findInvite(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, invite.ZID)
}

// ResolveInvite translates an external invite code to its conversation and
// bumps the code's use counter. Join paths use this; plain reads use Lookup.
func (s *ConversationService) ResolveInvite(ctx context.Context, code string) (*models.Conversation, error) {
	invite, err := s.findInvite(ctx, code)
	if err != nil {
		return nil, err
	}

	// Best effort: a lost increment never blocks the join.
	s.db.WithContext(ctx).Model(invite).
		UpdateColumn("use_count", gorm.Expr("use_count + 1"))

	return s.Get(ctx, invite.ZID)
}

func (s *ConversationService) findInvite(ctx context.Context, code string) (*models.ConversationInvite, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrConversationNotFound
	}

	var invite models.ConversationInvite
	if err := s.db.WithContext(ctx).
		Where("code = ? AND active = ?", code, true).
		First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("conversation service: resolve invite: %w", err)
	}
	return &invite, nil
}

// ActiveInvite returns the conversation's current invite code, minting one
// lazily when none is active.
func (s *ConversationService) ActiveInvite(ctx context.Context, zid, callerUID uint) (*models.ConversationInvite, error) {
	if _, err := s.Get(ctx, zid); err != nil {
		return nil, err
	}

	var invite models.ConversationInvite
	err := s.db.WithContext(ctx).
		Where("zid = ? AND active = ?", zid, true).
		First(&invite).Error
	if err == nil {
		return &invite, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("conversation service: load invite: %w", err)
	}

	return s.createInvite(s.db.WithContext(ctx), zid, callerUID)
}

// RotateInvite retires the active code and mints a fresh one. The numeric
// conversation key is untouched, so existing participants keep their state.
// Owners and admins may rotate, the same gate moderation uses.
func (s *ConversationService) RotateInvite(ctx context.Context, zid uint, caller *models.User) (*models.ConversationInvite, error) {
	conversation, err := s.Get(ctx, zid)
	if err != nil {
		return nil, err
	}
	if caller == nil || (conversation.OwnerUID != caller.UID && !caller.IsAdmin) {
		return nil, ErrNotOwner
	}

	var invite *models.ConversationInvite
	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ConversationInvite{}).
			Where("zid = ? AND active = ?", zid, true).
			Updates(map[string]any{"active": false, "rotated_at": now}).Error; err != nil {
			return fmt.Errorf("conversation service: retire invite: %w", err)
		}
		created, err := s.createInvite(tx, zid, caller.UID)
		if err != nil {
			return err
		}
		invite = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invite, nil
}

// ConversationStats summarises participation for a conversation.
type ConversationStats struct {
	ZID              uint  `json:"zid"`
	ParticipantCount int64 `json:"participant_count"`
	CommentCount     int64 `json:"comment_count"`
	VoteCount        int64 `json:"vote_count"`
}

// Stats counts participants, comments and votes for a conversation.
func (s *ConversationService) Stats(ctx context.Context, zid uint) (*ConversationStats, error) {
	if _, err := s.Get(ctx, zid); err != nil {
		return nil, err
	}

	stats := ConversationStats{ZID: zid}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Participant{}).Where("zid = ?", zid).Count(&stats.ParticipantCount).Error; err != nil {
		return nil, fmt.Errorf("conversation service: count participants: %w", err)
	}
	if err := db.Model(&models.Comment{}).Where("zid = ?", zid).Count(&stats.CommentCount).Error; err != nil {
		return nil, fmt.Errorf("conversation service: count comments: %w", err)
	}
	if err := db.Model(&models.Vote{}).
		Joins("JOIN participants ON participants.pid = votes.pid").
		Where("participants.zid = ?", zid).
		Count(&stats.VoteCount).Error; err != nil {
		return nil, fmt.Errorf("conversation service: count votes: %w", err)
	}
	return &stats, nil
}

func (s *ConversationService) createInvite(tx *gorm.DB, zid, createdBy uint) (*models.ConversationInvite, error) {
	code, err := crypto.GenerateToken(s.codeLength)
	if err != nil {
		return nil, fmt.Errorf("conversation service: generate invite code: %w", err)
	}

	invite := models.ConversationInvite{
		Code:      code,
		ZID:       zid,
		CreatedBy: createdBy,
		Active:    true,
	}
	if err := tx.Create(&invite).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// Astronomically unlikely code collision; surface it rather
			// than retry silently.
			return nil, fmt.Errorf("conversation service: invite code collision: %w", err)
		}
		return nil, fmt.Errorf("conversation service: create invite: %w", err)
	}
	return &invite, nil
}
