package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/agoralabs/agora/internal/database"
	"github.com/agoralabs/agora/internal/models"
)

// ErrParticipantNotFound indicates no participant row matches the lookup.
var ErrParticipantNotFound = errors.New("participant service: participant not found")

// ParticipantService manages participant rows, the join table between
// conversations and user or anonymous identities.
type ParticipantService struct {
	db *gorm.DB
}

// NewParticipantService constructs a ParticipantService.
func NewParticipantService(db *gorm.DB) (*ParticipantService, error) {
	if db == nil {
		return nil, errors.New("participant service: db is required")
	}
	return &ParticipantService{db: db}, nil
}

// GetOrCreateForUser returns the participant row for (zid, uid), creating it
// on first access. Concurrent first requests collapse onto one row through
// the unique index.
func (s *ParticipantService) GetOrCreateForUser(ctx context.Context, zid, uid uint) (*models.Participant, error) {
	if uid == 0 {
		return nil, errors.New("participant service: uid is required")
	}
	return s.getOrCreate(ctx, zid, &models.Participant{ZID: zid, UID: &uid}, "zid = ? AND uid = ?", zid, uid)
}

// GetOrCreateForAnon returns the participant row for (zid, anonID), creating
// it on first access.
func (s *ParticipantService) GetOrCreateForAnon(ctx context.Context, zid uint, anonID string) (*models.Participant, error) {
	if anonID == "" {
		return nil, errors.New("participant service: anon id is required")
	}
	return s.getOrCreate(ctx, zid, &models.Participant{ZID: zid, AnonID: &anonID}, "zid = ? AND anon_id = ?", zid, anonID)
}

// FindForUser looks up an existing participant row without creating one.
func (s *ParticipantService) FindForUser(ctx context.Context, zid, uid uint) (*models.Participant, error) {
	return s.find(ctx, "zid = ? AND uid = ?", zid, uid)
}

// FindForAnon looks up an existing anonymous participant row.
func (s *ParticipantService) FindForAnon(ctx context.Context, zid uint, anonID string) (*models.Participant, error) {
	return s.find(ctx, "zid = ? AND anon_id = ?", zid, anonID)
}

// Get loads a participant by its numeric key.
func (s *ParticipantService) Get(ctx context.Context, pid uint) (*models.Participant, error) {
	var participant models.Participant
	if err := s.db.WithContext(ctx).First(&participant, "pid = ?", pid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("participant service: load participant: %w", err)
	}
	return &participant, nil
}

// List returns every participant in a conversation ordered by join time.
func (s *ParticipantService) List(ctx context.Context, zid uint) ([]models.Participant, error) {
	var participants []models.Participant
	if err := s.db.WithContext(ctx).
		Where("zid = ?", zid).
		Order("pid ASC").
		Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("participant service: list participants: %w", err)
	}
	return participants, nil
}

func (s *ParticipantService) find(ctx context.Context, query string, args ...any) (*models.Participant, error) {
	var participant models.Participant
	if err := s.db.WithContext(ctx).Where(query, args...).First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("participant service: find participant: %w", err)
	}
	return &participant, nil
}

func (s *ParticipantService) getOrCreate(ctx context.Context, zid uint, row *models.Participant, query string, args ...any) (*models.Participant, error) {
	existing, err := s.find(ctx, query, args...)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrParticipantNotFound) {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// Lost the creation race; the winner's row is what we want.
			return s.find(ctx, query, args...)
		}
		return nil, fmt.Errorf("participant service: create participant: %w", err)
	}
	return row, nil
}
