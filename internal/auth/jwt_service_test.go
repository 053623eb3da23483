package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestGenerateAndValidateSessionToken(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewJWTService(JWTConfig{
		Secret:   "super-secret",
		Issuer:   "agora",
		TokenTTL: time.Hour,
		Clock:    now,
	})
	require.NoError(t, err)

	token, err := svc.GenerateSessionToken(123, "session-456")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	require.Equal(t, uint(123), claims.UID)
	require.Equal(t, "session-456", claims.SessionID)
	require.Equal(t, "agora", claims.Issuer)
	require.True(t, claims.IssuedAt.Time.Equal(current))
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(time.Hour)))
}

func TestValidateTokenInvalidSignature(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC) }

	issuer, err := NewJWTService(JWTConfig{Secret: "issuer-secret", TokenTTL: time.Minute, Clock: now})
	require.NoError(t, err)

	token, err := issuer.GenerateSessionToken(1, "sid")
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "other-secret", TokenTTL: time.Minute, Clock: now})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewJWTService(JWTConfig{
		Secret:   "super-secret",
		TokenTTL: time.Hour,
		Clock:    func() time.Time { return current },
	})
	require.NoError(t, err)

	token, err := svc.GenerateSessionToken(7, "sid")
	require.NoError(t, err)

	// Same signing key, but the clock has moved past expiry.
	current = current.Add(2 * time.Hour)
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}

func TestDefaultTokenTTLIs168Hours(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "s"})
	require.NoError(t, err)
	require.Equal(t, 168*time.Hour, svc.TokenTTL())
}

func TestAnonTokenRoundTrip(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "super-secret", Issuer: "agora"})
	require.NoError(t, err)

	token, anonID, err := svc.GenerateAnonToken()
	require.NoError(t, err)
	require.NotEmpty(t, anonID)

	got, err := svc.ValidateAnonToken(token)
	require.NoError(t, err)
	require.Equal(t, anonID, got)

	// Two anon tokens must never share an identity.
	_, other, err := svc.GenerateAnonToken()
	require.NoError(t, err)
	require.NotEqual(t, anonID, other)
}

func TestValidateAnonTokenRejectsSessionToken(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "super-secret"})
	require.NoError(t, err)

	token, err := svc.GenerateSessionToken(9, "sid")
	require.NoError(t, err)

	_, err = svc.ValidateAnonToken(token)
	require.Error(t, err)
}
