package app

import (
	"github.com/agoralabs/agora/internal/auth"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}

	return auth.JWTConfig{
		Secret:   c.JWT.Secret,
		Issuer:   c.JWT.Issuer,
		TokenTTL: ttl,
	}
}

// CredentialServiceConfig converts AuthConfig into CredentialService parameters.
func (c AuthConfig) CredentialServiceConfig() auth.CredentialConfig {
	return auth.CredentialConfig{
		ResetTokenTTL: c.Reset.TokenTTL,
	}
}
