package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every CLINICAUTH_ env var that Load() reads.
var allConfigKeys = []string{
	"CLINICAUTH_LISTEN_ADDR",
	"CLINICAUTH_DB_PATH",
	"CLINICAUTH_DATABASE_URL",
	"CLINICAUTH_BASE_URL",
	"CLINICAUTH_CLINIC_NAME",
	"CLINICAUTH_SESSION_SECRET",
	"CLINICAUTH_SESSION_TTL",
	"CLINICAUTH_SECURE_COOKIES",
	"CLINICAUTH_SECRET_KEY",
	"CLINICAUTH_NOTIFIER",
	"CLINICAUTH_SMTP_HOST",
	"CLINICAUTH_SMTP_PORT",
	"CLINICAUTH_SMTP_USERNAME",
	"CLINICAUTH_SMTP_PASSWORD",
	"CLINICAUTH_SMTP_FROM",
	"CLINICAUTH_GOOGLE_CLIENT_ID",
	"CLINICAUTH_GOOGLE_CLIENT_SECRET",
	"CLINICAUTH_GITHUB_CLIENT_ID",
	"CLINICAUTH_GITHUB_CLIENT_SECRET",
	"CLINICAUTH_SWEEP_INTERVAL",
}

const testSecret = "0123456789abcdef0123456789abcdef"

// isolateConfigEnv saves and unsets all CLINICAUTH_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("CLINICAUTH_SESSION_SECRET", testSecret)
	t.Setenv("CLINICAUTH_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("CLINICAUTH_DB_PATH", "/tmp/test.db")
	t.Setenv("CLINICAUTH_DATABASE_URL", "postgres://clinic@localhost/clinic")
	t.Setenv("CLINICAUTH_BASE_URL", "https://auth.clinic.example/")
	t.Setenv("CLINICAUTH_CLINIC_NAME", "Ayur Clinic")
	t.Setenv("CLINICAUTH_SESSION_TTL", "24h")
	t.Setenv("CLINICAUTH_SECURE_COOKIES", "true")
	t.Setenv("CLINICAUTH_SECRET_KEY", strings.Repeat("ab", 32))
	t.Setenv("CLINICAUTH_NOTIFIER", "SMTP")
	t.Setenv("CLINICAUTH_SMTP_HOST", "smtp.clinic.example")
	t.Setenv("CLINICAUTH_SMTP_PORT", "2525")
	t.Setenv("CLINICAUTH_SMTP_FROM", "no-reply@clinic.example")
	t.Setenv("CLINICAUTH_GOOGLE_CLIENT_ID", "gid")
	t.Setenv("CLINICAUTH_GOOGLE_CLIENT_SECRET", "gsecret")
	t.Setenv("CLINICAUTH_SWEEP_INTERVAL", "0")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.True(t, cfg.UsePostgres())
	assert.Equal(t, "Ayur Clinic", cfg.ClinicName)
	assert.Equal(t, []byte(testSecret), cfg.SessionSecret)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.SecureCookies)
	assert.Len(t, cfg.SecretKey, 32)
	assert.Equal(t, NotifierSMTP, cfg.Notifier)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.True(t, cfg.Google.Enabled())
	assert.False(t, cfg.GitHub.Enabled())
	assert.Equal(t, time.Duration(0), cfg.SweepInterval)
	assert.Equal(t, "https://auth.clinic.example/auth/oauth/google/callback", cfg.OAuthRedirectURL("google"))
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("CLINICAUTH_SESSION_SECRET", testSecret)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "clinicauth.db", cfg.DBPath)
	assert.False(t, cfg.UsePostgres())
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "Ayurveda Clinic", cfg.ClinicName)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.SecureCookies)
	assert.Nil(t, cfg.SecretKey)
	assert.Equal(t, NotifierLog, cfg.Notifier)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing session secret",
			env:     map[string]string{"CLINICAUTH_SESSION_SECRET": ""},
			wantErr: "CLINICAUTH_SESSION_SECRET is required",
		},
		{
			name:    "short session secret",
			env:     map[string]string{"CLINICAUTH_SESSION_SECRET": "short"},
			wantErr: "at least 32 bytes",
		},
		{
			name:    "bad session ttl",
			env:     map[string]string{"CLINICAUTH_SESSION_TTL": "forever"},
			wantErr: "CLINICAUTH_SESSION_TTL has invalid duration",
		},
		{
			name:    "zero session ttl",
			env:     map[string]string{"CLINICAUTH_SESSION_TTL": "0s"},
			wantErr: "must be positive",
		},
		{
			name:    "negative sweep interval",
			env:     map[string]string{"CLINICAUTH_SWEEP_INTERVAL": "-1m"},
			wantErr: "must not be negative",
		},
		{
			name:    "bad secure cookies",
			env:     map[string]string{"CLINICAUTH_SECURE_COOKIES": "sometimes"},
			wantErr: "invalid boolean",
		},
		{
			name:    "short secret key",
			env:     map[string]string{"CLINICAUTH_SECRET_KEY": "abcd"},
			wantErr: "64 hex characters",
		},
		{
			name:    "non-hex secret key",
			env:     map[string]string{"CLINICAUTH_SECRET_KEY": strings.Repeat("zz", 32)},
			wantErr: "64 hex characters",
		},
		{
			name:    "relative base url",
			env:     map[string]string{"CLINICAUTH_BASE_URL": "/auth"},
			wantErr: "CLINICAUTH_BASE_URL",
		},
		{
			name:    "unknown notifier",
			env:     map[string]string{"CLINICAUTH_NOTIFIER": "sms"},
			wantErr: "CLINICAUTH_NOTIFIER",
		},
		{
			name:    "smtp without host",
			env:     map[string]string{"CLINICAUTH_NOTIFIER": "smtp", "CLINICAUTH_SMTP_FROM": "a@b.c"},
			wantErr: "CLINICAUTH_SMTP_HOST",
		},
		{
			name:    "bad smtp port",
			env:     map[string]string{"CLINICAUTH_SMTP_PORT": "70000"},
			wantErr: "CLINICAUTH_SMTP_PORT",
		},
		{
			name:    "github id without secret",
			env:     map[string]string{"CLINICAUTH_GITHUB_CLIENT_ID": "id"},
			wantErr: "CLINICAUTH_GITHUB_CLIENT_ID and CLINICAUTH_GITHUB_CLIENT_SECRET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv("CLINICAUTH_SESSION_SECRET", testSecret)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
