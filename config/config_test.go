package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 14, cfg.LoanDefaultDays)
	assert.Equal(t, 7, cfg.LoanExtendDefaultDays)
	assert.Equal(t, 30, cfg.LoanExtendMaxDays)
	assert.False(t, cfg.UseMemoryStore())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("LOAN_DEFAULT_DAYS", "21")
	t.Setenv("DB_MAX_CONN_LIFETIME", "30m")
	t.Setenv("MAIL_SEND_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := Load()

	assert.True(t, cfg.UseMemoryStore())
	assert.Equal(t, 21, cfg.LoanDefaultDays)
	assert.Equal(t, 30*time.Minute, cfg.DBMaxConnLife)
	assert.False(t, cfg.MailSendEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("LOAN_DEFAULT_DAYS", "two weeks")
	t.Setenv("MAIL_SEND_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 14, cfg.LoanDefaultDays)
	assert.True(t, cfg.MailSendEnabled)
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "America/Sao_Paulo"}
	assert.Equal(t, "America/Sao_Paulo", cfg.Location().String())

	cfg.Timezone = "Mars/Olympus"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "library", DBSSLMode: "disable"}

	assert.Equal(t, "postgres://u:p@h:5432/library?sslmode=disable", cfg.PostgresDSN())
}
