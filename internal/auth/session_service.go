package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agoralabs/agora/internal/models"
	"github.com/agoralabs/agora/pkg/crypto"
	"github.com/agoralabs/agora/pkg/metrics"
)

var (
	// ErrSessionNotFound indicates that no session matches the provided token or identifier.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionRevoked marks a session invalidated by logout or deregistration.
	ErrSessionRevoked = errors.New("session: revoked")
	// ErrSessionExpired signals that a session has reached its expiry.
	ErrSessionExpired = errors.New("session: expired")
	// ErrUserInactive is returned when the session's subject has deregistered.
	ErrUserInactive = errors.New("session: user inactive")
)

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	Clock func() time.Time
}

// SessionMetadata captures contextual information about the client.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
}

// SessionService issues bearer tokens backed by revocable session rows. A
// token is only accepted while its session row exists, is unexpired, is not
// revoked, and its user remains active.
type SessionService struct {
	db  *gorm.DB
	jwt *JWTService
	now func() time.Time
}

// NewSessionService constructs a session manager backed by the provided database and JWT service.
func NewSessionService(db *gorm.DB, jwtService *JWTService, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("session service: jwt service is required")
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{
		db:  db,
		jwt: jwtService,
		now: clock,
	}, nil
}

// Issue creates a session row and returns the signed bearer token for it.
func (s *SessionService) Issue(uid uint, meta SessionMetadata) (string, *models.UserSession, error) {
	if uid == 0 {
		return "", nil, errors.New("session service: user id is required")
	}

	sessionID := uuid.NewString()
	token, err := s.jwt.GenerateSessionToken(uid, sessionID)
	if err != nil {
		return "", nil, fmt.Errorf("session service: generate token: %w", err)
	}

	now := s.now()
	session := &models.UserSession{
		ID:         sessionID,
		UID:        uid,
		TokenHash:  crypto.HashToken(token),
		IPAddress:  strings.TrimSpace(meta.IPAddress),
		UserAgent:  strings.TrimSpace(meta.UserAgent),
		ExpiresAt:  now.Add(s.jwt.TokenTTL()),
		LastUsedAt: now,
	}

	if err := s.db.Create(session).Error; err != nil {
		return "", nil, fmt.Errorf("session service: create session: %w", err)
	}

	metrics.ActiveSessions.Inc()

	return token, session, nil
}

// Authenticate validates a bearer token end to end: signature, expiry,
// session revocation state, and subject liveness.
func (s *SessionService) Authenticate(token string) (*models.User, *Claims, error) {
	claims, err := s.jwt.ValidateToken(strings.TrimSpace(token))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	if claims.UID == 0 || claims.SessionID == "" {
		return nil, nil, ErrSessionNotFound
	}

	var session models.UserSession
	err = s.db.Take(&session, "id = ?", claims.SessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("session service: find session: %w", err)
	}

	now := s.now()
	if session.RevokedAt != nil {
		return nil, nil, ErrSessionRevoked
	}
	if session.ExpiresAt.Before(now) {
		return nil, nil, ErrSessionExpired
	}

	var user models.User
	err = s.db.Take(&user, "uid = ?", claims.UID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("session service: find user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	// Last-used tracking is best effort; a failed update must not reject the request.
	_ = s.db.Model(&session).Update("last_used_at", now).Error

	return &user, claims, nil
}

// Revoke invalidates a session. Revoking an already revoked or unknown
// session is not an error, making logout idempotent.
func (s *SessionService) Revoke(sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}

	now := s.now()
	result := s.db.Model(&models.UserSession{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", now)
	if result.Error != nil {
		return fmt.Errorf("session service: revoke: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Dec()
	}

	return nil
}

// RevokeAllForUser invalidates every live session belonging to a user.
func (s *SessionService) RevokeAllForUser(uid uint) error {
	now := s.now()
	result := s.db.Model(&models.UserSession{}).
		Where("uid = ? AND revoked_at IS NULL", uid).
		Update("revoked_at", now)
	if result.Error != nil {
		return fmt.Errorf("session service: revoke all: %w", result.Error)
	}

	metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	return nil
}

// DeleteExpired removes sessions whose expiry has passed and returns the
// number of rows deleted. Invoked by the maintenance sweeper.
func (s *SessionService) DeleteExpired() (int64, error) {
	result := s.db.Where("expires_at < ?", s.now()).Delete(&models.UserSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: delete expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}
