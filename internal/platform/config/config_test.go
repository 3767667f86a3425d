package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenExpiryDuration)
	assert.Equal(t, 5, cfg.RefreshTokenMaxActive)
	assert.True(t, cfg.RefreshTokenRotation)
	assert.False(t, cfg.RefreshTokenReuseDetection)
	assert.Equal(t, "refreshToken", cfg.RefreshTokenCookieName)
	assert.Equal(t, "/api/v1/auth", cfg.RefreshTokenCookiePath)
	assert.Equal(t, 24*time.Hour, cfg.TokenCleanupInterval)
	assert.Equal(t, 720*time.Hour, cfg.RevokedTokenRetention)
	assert.Equal(t, "20-M", cfg.AuthRateLimit)
	assert.False(t, cfg.CookieSecure())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REFRESH_TOKEN_MAX_ACTIVE", "2")
	t.Setenv("REFRESH_TOKEN_EXPIRY_DURATION", "not-a-duration")
	t.Setenv("REFRESH_TOKEN_COOKIE_SECURE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("OIDC_PROVIDERS", "microsoft=https://login.microsoftonline.com/common/v2.0|client-1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.RefreshTokenMaxActive)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenExpiryDuration, "invalid durations fall back")
	assert.True(t, cfg.CookieSecure())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Len(t, cfg.OIDCProviders, 1)
	assert.Equal(t, OIDCProviderConfig{
		Name:      "MICROSOFT",
		IssuerURL: "https://login.microsoftonline.com/common/v2.0",
		ClientID:  "client-1",
	}, cfg.OIDCProviders[0])
}

func TestLoadConfig_ProductionRejectsDefaultSecret(t *testing.T) {
	t.Setenv("IS_PRODUCTION", "true")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestParseOIDCProviders_Invalid(t *testing.T) {
	for _, raw := range []string{"MICROSOFT", "MICROSOFT=https://issuer", "MICROSOFT=|client"} {
		_, err := ParseOIDCProviders(raw)
		assert.Error(t, err, raw)
	}

	out, err := ParseOIDCProviders("")
	require.NoError(t, err)
	assert.Empty(t, out)
}
