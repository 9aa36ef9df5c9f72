package identity

import (
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// Config holds the signing key, per-flow token expiries, and the
// application URLs the flows embed in tokens and emails. It is injected
// into constructors; nothing here is read from ambient process state at
// call time.
type Config struct {
	SigningKey string `env:"JWT_SECRET"`
	Issuer     string `env:"JWT_ISSUER" envDefault:"go-identity"`

	LoginTokenTTL        time.Duration `env:"JWT_LOGIN_EXPIRED_IN" envDefault:"24h"`
	RegistrationTokenTTL time.Duration `env:"JWT_REGISTER_EXPIRED_IN" envDefault:"720h"`
	RecoveryTokenTTL     time.Duration `env:"JWT_RECOVERY_EXPIRED_IN" envDefault:"24h"`

	AppName  string `env:"APP_NAME" envDefault:"go-identity"`
	WebURL   string `env:"APP_WEB_URL"`
	APIURL   string `env:"APP_API_URL"`
	MailFrom string `env:"SMTP_FROM"`

	// MediaDir is where the local avatar store writes when no remote
	// store is configured
	MediaDir string `env:"MEDIA_DIR" envDefault:"media/avatar"`

	// PhoneRegion is the default region for normalizing national numbers
	PhoneRegion string `env:"PHONE_REGION" envDefault:"US"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse environment configuration")
	}
	return cfg.WithDefaults(), nil
}

// WithDefaults fills zero-valued expiries with the flow defaults: 1 day
// for login and recovery tokens, 30 days for registration tokens.
func (c Config) WithDefaults() Config {
	if c.LoginTokenTTL == 0 {
		c.LoginTokenTTL = 24 * time.Hour
	}
	if c.RegistrationTokenTTL == 0 {
		c.RegistrationTokenTTL = 30 * 24 * time.Hour
	}
	if c.RecoveryTokenTTL == 0 {
		c.RecoveryTokenTTL = 24 * time.Hour
	}
	if c.Issuer == "" {
		c.Issuer = "go-identity"
	}
	if c.PhoneRegion == "" {
		c.PhoneRegion = "US"
	}
	return c
}

// Validate ensures we have enough configuration to sign tokens.
func (c Config) Validate() error {
	if c.SigningKey == "" {
		return goerrors.New("signing key is required", goerrors.CategoryValidation).
			WithTextCode("MISSING_SIGNING_KEY")
	}
	return nil
}
