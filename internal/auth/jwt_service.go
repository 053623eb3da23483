package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agoralabs/agora/pkg/crypto"
)

// DefaultTokenTTL is the fallback session token lifetime (7 days, matching
// the original API's 168 hour default).
const DefaultTokenTTL = 168 * time.Hour

// anonIDBytes sizes the random anonymous participant identifier. 16 bytes of
// entropy keeps distinct clients from ever colliding.
const anonIDBytes = 16

// anonTokenTTL keeps anonymous identities stable for a year, matching the
// lifetime of the cookie that carries them. Session TTL does not apply:
// expiring an anonymous identity would silently fork the participant.
const anonTokenTTL = 365 * 24 * time.Hour

// JWTConfig bundles the configuration required to build a JWTService.
type JWTConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
	Clock    func() time.Time
}

// Claims represents the custom claims embedded in issued tokens. Session
// tokens carry UID and SessionID; anonymous participation tokens carry only
// AnonID.
type Claims struct {
	UID       uint   `json:"uid,omitempty"`
	SessionID string `json:"sid,omitempty"`
	AnonID    string `json:"anon,omitempty"`
	jwt.RegisteredClaims
}

// JWTService is responsible for issuing and validating signed tokens.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService constructs a JWTService instance when provided with the required configuration.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

// TokenTTL exposes the configured token lifetime.
func (s *JWTService) TokenTTL() time.Duration {
	return s.ttl
}

// GenerateSessionToken issues a signed token for an authenticated user and
// the session row that tracks revocation.
func (s *JWTService) GenerateSessionToken(uid uint, sessionID string) (string, error) {
	if uid == 0 {
		return "", errors.New("jwt: user id is required")
	}

	now := s.now()
	claims := &Claims{
		UID:       uid,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(uid), 10),
			Issuer:    s.issuer,
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, nil
}

// GenerateAnonToken issues a signed anonymous participation token carrying a
// fresh random identity. It never encodes a real user id.
func (s *JWTService) GenerateAnonToken() (token, anonID string, err error) {
	anonID, err = crypto.GenerateToken(anonIDBytes)
	if err != nil {
		return "", "", fmt.Errorf("jwt: generate anon id: %w", err)
	}

	now := s.now()
	claims := &Claims{
		AnonID: anonID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "anon",
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(anonTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("jwt: sign anon token: %w", err)
	}

	return signed, anonID, nil
}

// ValidateToken parses and validates a signed token, returning the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("jwt: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("jwt: invalid issuer")
	}

	if claims.UID == 0 && claims.AnonID == "" {
		return nil, errors.New("jwt: missing subject claims")
	}

	return &claims, nil
}

// ValidateAnonToken validates a token and requires it to carry an anonymous
// identity rather than a user session.
func (s *JWTService) ValidateAnonToken(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	if claims.AnonID == "" || claims.UID != 0 {
		return "", errors.New("jwt: not an anonymous token")
	}
	return claims.AnonID, nil
}
