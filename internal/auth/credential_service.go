package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/agoralabs/agora/internal/database"
	"github.com/agoralabs/agora/internal/models"
	"github.com/agoralabs/agora/pkg/crypto"
)

const (
	defaultResetTokenTTL   = 30 * time.Minute
	defaultResetTokenBytes = 32
)

var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("credentials: email already registered")
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("credentials: invalid email or password")
	// ErrResetTokenInvalid covers unknown, expired, and already-used reset tokens.
	ErrResetTokenInvalid = errors.New("credentials: invalid or expired reset token")
	// ErrUserNotFound indicates the referenced account does not exist.
	ErrUserNotFound = errors.New("credentials: user not found")
)

// CredentialConfig describes tunable behaviour for the CredentialService.
type CredentialConfig struct {
	ResetTokenTTL time.Duration
	Clock         func() time.Time
}

// RegisterInput captures the details required to register a new account.
type RegisterInput struct {
	Email    string
	Password string
	HName    string
}

// CredentialService owns password credentials: registration, verification,
// password change, reset tokens, and deregistration.
type CredentialService struct {
	db       *gorm.DB
	sessions *SessionService
	resetTTL time.Duration
	now      func() time.Time
}

// NewCredentialService constructs a CredentialService with the provided dependencies.
func NewCredentialService(db *gorm.DB, sessions *SessionService, cfg CredentialConfig) (*CredentialService, error) {
	if db == nil {
		return nil, errors.New("credential service: db is required")
	}
	if sessions == nil {
		return nil, errors.New("credential service: session service is required")
	}

	ttl := cfg.ResetTokenTTL
	if ttl <= 0 {
		ttl = defaultResetTokenTTL
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &CredentialService{
		db:       db,
		sessions: sessions,
		resetTTL: ttl,
		now:      clock,
	}, nil
}

// Register creates a new account with a hashed password.
func (s *CredentialService) Register(input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, errors.New("credential service: email and password are required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("credential service: hash password: %w", err)
	}

	user := &models.User{
		Email:    email,
		Password: hashed,
		HName:    strings.TrimSpace(input.HName),
		IsActive: true,
	}

	if err := s.db.Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("credential service: create user: %w", err)
	}

	return user, nil
}

// Login verifies the supplied credentials and returns the account when successful.
func (s *CredentialService) Login(email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := s.db.Take(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("credential service: query user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if !crypto.VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// ChangePassword updates a user's password after verifying the existing credential.
func (s *CredentialService) ChangePassword(uid uint, currentPassword, newPassword string) error {
	if newPassword == "" {
		return errors.New("credential service: new password is required")
	}

	var user models.User
	err := s.db.Take(&user, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("credential service: query user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, currentPassword) {
		return ErrInvalidCredentials
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("credential service: hash password: %w", err)
	}

	if err := s.db.Model(&user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("credential service: update password: %w", err)
	}

	return nil
}

// Deregister verifies the password, revokes every session, and deactivates
// the account. The user row itself is preserved.
func (s *CredentialService) Deregister(uid uint, password string) error {
	var user models.User
	err := s.db.Take(&user, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("credential service: query user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		return ErrInvalidCredentials
	}

	if err := s.sessions.RevokeAllForUser(uid); err != nil {
		return err
	}

	if err := s.db.Model(&user).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("credential service: deactivate user: %w", err)
	}

	return nil
}

// CreateResetToken issues a password reset token for the account behind the
// email. Unknown emails return an empty token with no error so callers can
// answer identically either way (account enumeration resistance).
func (s *CredentialService) CreateResetToken(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.Take(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("credential service: query user: %w", err)
	}

	raw, err := crypto.GenerateToken(defaultResetTokenBytes)
	if err != nil {
		return "", fmt.Errorf("credential service: generate token: %w", err)
	}

	token := &models.PasswordResetToken{
		UID:       user.UID,
		TokenHash: crypto.HashToken(raw),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.db.Create(token).Error; err != nil {
		return "", fmt.Errorf("credential service: store token: %w", err)
	}

	return raw, nil
}

// ResetPassword redeems a reset token and sets the new password. The token
// is consumed on success and cannot be replayed; every live session for the
// account is revoked.
func (s *CredentialService) ResetPassword(rawToken, newPassword string) error {
	if rawToken == "" || newPassword == "" {
		return ErrResetTokenInvalid
	}

	var token models.PasswordResetToken
	err := s.db.Take(&token, "token_hash = ?", crypto.HashToken(rawToken)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("credential service: query token: %w", err)
	}

	now := s.now()
	if token.UsedAt != nil || token.ExpiresAt.Before(now) {
		return ErrResetTokenInvalid
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("credential service: hash password: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Consume the token with a guard against concurrent redemption.
		result := tx.Model(&models.PasswordResetToken{}).
			Where("id = ? AND used_at IS NULL", token.ID).
			Update("used_at", now)
		if result.Error != nil {
			return fmt.Errorf("credential service: consume token: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrResetTokenInvalid
		}

		if err := tx.Model(&models.User{}).Where("uid = ?", token.UID).
			Update("password", hashed).Error; err != nil {
			return fmt.Errorf("credential service: update password: %w", err)
		}

		if err := tx.Model(&models.UserSession{}).
			Where("uid = ? AND revoked_at IS NULL", token.UID).
			Update("revoked_at", now).Error; err != nil {
			return fmt.Errorf("credential service: revoke sessions: %w", err)
		}

		return nil
	})
}

// DeleteExpiredResetTokens removes tokens past expiry. Invoked by the
// maintenance sweeper.
func (s *CredentialService) DeleteExpiredResetTokens() (int64, error) {
	result := s.db.Where("expires_at < ?", s.now()).Delete(&models.PasswordResetToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("credential service: delete expired tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
