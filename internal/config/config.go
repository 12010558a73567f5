// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Notifier kinds accepted by CLINICAUTH_NOTIFIER.
const (
	NotifierLog  = "log"
	NotifierSMTP = "smtp"
)

const (
	minSessionSecretLen = 32
	secretKeyLen        = 32
)

// SMTPConfig holds the outbound mail settings used when Notifier is "smtp".
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// OAuthClient is a registered OAuth application.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
}

// Enabled reports whether the client is configured.
func (c OAuthClient) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr  string
	DBPath      string
	DatabaseURL string
	BaseURL     string
	ClinicName  string

	SessionSecret []byte
	SessionTTL    time.Duration
	SecureCookies bool

	// SecretKey encrypts provider access tokens at rest. Nil means tokens are not stored.
	SecretKey []byte

	Notifier string
	SMTP     SMTPConfig

	Google OAuthClient
	GitHub OAuthClient

	SweepInterval time.Duration
}

// UsePostgres reports whether a PostgreSQL URL was configured. When false the
// embedded SQLite database at DBPath is used.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// OAuthRedirectURL returns the callback URL registered with a provider.
func (c *Config) OAuthRedirectURL(provider string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/auth/oauth/" + provider + "/callback"
}

// Load reads configuration from environment variables and returns a validated Config.
// CLINICAUTH_SESSION_SECRET is required. Optional variables with defaults:
// CLINICAUTH_LISTEN_ADDR (127.0.0.1:8080), CLINICAUTH_DB_PATH (clinicauth.db),
// CLINICAUTH_SESSION_TTL (720h), CLINICAUTH_BASE_URL (http://localhost:8080),
// CLINICAUTH_NOTIFIER (log), CLINICAUTH_SMTP_PORT (587), CLINICAUTH_SWEEP_INTERVAL (15m).
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:    envOr("CLINICAUTH_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:        envOr("CLINICAUTH_DB_PATH", "clinicauth.db"),
		DatabaseURL:   os.Getenv("CLINICAUTH_DATABASE_URL"),
		BaseURL:       envOr("CLINICAUTH_BASE_URL", "http://localhost:8080"),
		ClinicName:    envOr("CLINICAUTH_CLINIC_NAME", "Ayurveda Clinic"),
		Notifier:      strings.ToLower(envOr("CLINICAUTH_NOTIFIER", NotifierLog)),
		SessionTTL:    720 * time.Hour,
		SweepInterval: 15 * time.Minute,
		SMTP: SMTPConfig{
			Host:     os.Getenv("CLINICAUTH_SMTP_HOST"),
			Port:     587,
			Username: os.Getenv("CLINICAUTH_SMTP_USERNAME"),
			Password: os.Getenv("CLINICAUTH_SMTP_PASSWORD"),
			From:     os.Getenv("CLINICAUTH_SMTP_FROM"),
		},
		Google: OAuthClient{
			ClientID:     os.Getenv("CLINICAUTH_GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("CLINICAUTH_GOOGLE_CLIENT_SECRET"),
		},
		GitHub: OAuthClient{
			ClientID:     os.Getenv("CLINICAUTH_GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("CLINICAUTH_GITHUB_CLIENT_SECRET"),
		},
	}

	secret := os.Getenv("CLINICAUTH_SESSION_SECRET")
	if secret == "" {
		return nil, errors.New("CLINICAUTH_SESSION_SECRET is required")
	}
	if len(secret) < minSessionSecretLen {
		return nil, fmt.Errorf("CLINICAUTH_SESSION_SECRET must be at least %d bytes, got %d", minSessionSecretLen, len(secret))
	}
	cfg.SessionSecret = []byte(secret)

	var err error
	if cfg.SessionTTL, err = durationEnv("CLINICAUTH_SESSION_TTL", cfg.SessionTTL); err != nil {
		return nil, err
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("CLINICAUTH_SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}

	if cfg.SweepInterval, err = durationEnv("CLINICAUTH_SWEEP_INTERVAL", cfg.SweepInterval); err != nil {
		return nil, err
	}
	if cfg.SweepInterval < 0 {
		return nil, fmt.Errorf("CLINICAUTH_SWEEP_INTERVAL must not be negative, got %s", cfg.SweepInterval)
	}

	if v, ok := os.LookupEnv("CLINICAUTH_SECURE_COOKIES"); ok && v != "" {
		if cfg.SecureCookies, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("CLINICAUTH_SECURE_COOKIES has invalid boolean %q: %w", v, err)
		}
	}

	if v := os.Getenv("CLINICAUTH_SECRET_KEY"); v != "" {
		key, err := hex.DecodeString(v)
		if err != nil || len(key) != secretKeyLen {
			return nil, fmt.Errorf("CLINICAUTH_SECRET_KEY must be %d hex characters", secretKeyLen*2)
		}
		cfg.SecretKey = key
	}

	if err := validateBaseURL(cfg.BaseURL); err != nil {
		return nil, err
	}

	if err := loadSMTP(cfg); err != nil {
		return nil, err
	}

	for name, client := range map[string]OAuthClient{"GOOGLE": cfg.Google, "GITHUB": cfg.GitHub} {
		if (client.ClientID == "") != (client.ClientSecret == "") {
			return nil, fmt.Errorf("CLINICAUTH_%s_CLIENT_ID and CLINICAUTH_%s_CLIENT_SECRET must be set together", name, name)
		}
	}

	return cfg, nil
}

func loadSMTP(cfg *Config) error {
	if v, ok := os.LookupEnv("CLINICAUTH_SMTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("CLINICAUTH_SMTP_PORT has invalid port %q", v)
		}
		cfg.SMTP.Port = port
	}

	switch cfg.Notifier {
	case NotifierLog:
		return nil
	case NotifierSMTP:
		if cfg.SMTP.Host == "" || cfg.SMTP.From == "" {
			return errors.New("CLINICAUTH_SMTP_HOST and CLINICAUTH_SMTP_FROM are required when CLINICAUTH_NOTIFIER=smtp")
		}
		return nil
	default:
		return fmt.Errorf("CLINICAUTH_NOTIFIER must be %q or %q, got %q", NotifierLog, NotifierSMTP, cfg.Notifier)
	}
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CLINICAUTH_BASE_URL must be an absolute http(s) URL, got %q", raw)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return parsed, nil
}
