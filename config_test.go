package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/goliatone/go-identity"
)

func TestConfigWithDefaults(t *testing.T) {
	cfg := identity.Config{SigningKey: "key"}.WithDefaults()

	assert.Equal(t, 24*time.Hour, cfg.LoginTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RegistrationTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.RecoveryTokenTTL)
	assert.Equal(t, "go-identity", cfg.Issuer)
	assert.Equal(t, "US", cfg.PhoneRegion)
}

func TestConfigWithDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := identity.Config{
		SigningKey:           "key",
		Issuer:               "custom",
		LoginTokenTTL:        time.Hour,
		RegistrationTokenTTL: 48 * time.Hour,
		RecoveryTokenTTL:     2 * time.Hour,
		PhoneRegion:          "GB",
	}.WithDefaults()

	assert.Equal(t, "custom", cfg.Issuer)
	assert.Equal(t, time.Hour, cfg.LoginTokenTTL)
	assert.Equal(t, 48*time.Hour, cfg.RegistrationTokenTTL)
	assert.Equal(t, 2*time.Hour, cfg.RecoveryTokenTTL)
	assert.Equal(t, "GB", cfg.PhoneRegion)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, identity.Config{}.Validate())
	assert.NoError(t, identity.Config{SigningKey: "key"}.Validate())
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-key")
	t.Setenv("JWT_ISSUER", "env-issuer")
	t.Setenv("JWT_LOGIN_EXPIRED_IN", "2h")
	t.Setenv("JWT_REGISTER_EXPIRED_IN", "96h")
	t.Setenv("APP_NAME", "EnvApp")
	t.Setenv("APP_WEB_URL", "http://web.example.com")
	t.Setenv("SMTP_FROM", "noreply@example.com")
	t.Setenv("PHONE_REGION", "ES")

	cfg, err := identity.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.SigningKey)
	assert.Equal(t, "env-issuer", cfg.Issuer)
	assert.Equal(t, 2*time.Hour, cfg.LoginTokenTTL)
	assert.Equal(t, 96*time.Hour, cfg.RegistrationTokenTTL)
	assert.Equal(t, "EnvApp", cfg.AppName)
	assert.Equal(t, "http://web.example.com", cfg.WebURL)
	assert.Equal(t, "noreply@example.com", cfg.MailFrom)
	assert.Equal(t, "ES", cfg.PhoneRegion)

	// unset expiries pick up flow defaults
	assert.Equal(t, 24*time.Hour, cfg.RecoveryTokenTTL)
}
