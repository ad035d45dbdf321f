package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"RENTMARKET_ADDR", "PAGE_SIZE", "PENDING_ROLE_TTL", "KAFKA_BROKERS", "DATABASE_URL", "PRIVILEGED_EMAIL"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, DefaultPendingRoleTTL, cfg.PendingRole.TTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.PrivilegedEmail)
	assert.NotEmpty(t, cfg.Identity.JWTSecret)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("RENTMARKET_ADDR", ":9090")
	t.Setenv("PAGE_SIZE", "12")
	t.Setenv("PENDING_ROLE_TTL", "2m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("PRIVILEGED_EMAIL", "root@example.com")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 12, cfg.PageSize)
	assert.Equal(t, 2*time.Minute, cfg.PendingRole.TTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "root@example.com", cfg.PrivilegedEmail)
}

func TestFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("PAGE_SIZE", "-3")
	t.Setenv("PENDING_ROLE_TTL", "soon")

	cfg := FromEnv()

	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, DefaultPendingRoleTTL, cfg.PendingRole.TTL)
}

func TestRateLimitAndAuditSettings(t *testing.T) {
	t.Setenv("RATE_LIMIT_DISABLED", "true")
	t.Setenv("RATE_LIMIT_WRITES", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "10s")
	t.Setenv("AUDIT_BUFFER_SIZE", "")

	cfg := FromEnv()

	assert.True(t, cfg.RateLimit.Disabled)
	assert.Equal(t, 5, cfg.RateLimit.Writes)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 1024, cfg.Audit.BufferSize)
}
