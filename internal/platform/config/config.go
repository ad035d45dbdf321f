package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// PrivilegedEmail is always resolved to the superadmin role. Compared
	// case-sensitively against the session email.
	PrivilegedEmail string

	Identity    IdentityConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	PageSize    int
	PendingRole PendingRoleConfig
	RateLimit   RateLimitConfig
	Audit       AuditConfig
}

// IdentityConfig verifies access tokens minted by the external identity provider.
type IdentityConfig struct {
	JWTSecret string
	Issuer    string
}

// DatabaseConfig selects Postgres when URL is set; in-memory stores otherwise.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig backs the pending-role handoff when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the broker audit sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// PendingRoleConfig bounds how long a registration's role choice survives
// the identity-provider round trip.
type PendingRoleConfig struct {
	TTL time.Duration
}

// RateLimitConfig caps mutating requests per caller in a sliding window.
type RateLimitConfig struct {
	Disabled bool
	Writes   int
	Window   time.Duration
}

// AuditConfig tunes delivery to the broker sink.
type AuditConfig struct {
	BufferSize       int
	FailureThreshold int
	Cooldown         time.Duration
}

const (
	DefaultPageSize       = 8
	DefaultPendingRoleTTL = 15 * time.Minute
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:            envString("RENTMARKET_ADDR", ":8080"),
		LogLevel:        envString("LOG_LEVEL", "info"),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		PrivilegedEmail: os.Getenv("PRIVILEGED_EMAIL"),
		Identity: IdentityConfig{
			// Development default; production deployments must override it.
			JWTSecret: envString("IDENTITY_JWT_SECRET", "dev-identity-secret-change-me"),
			Issuer:    os.Getenv("IDENTITY_JWT_ISSUER"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    envList("KAFKA_BROKERS"),
			AuditTopic: envString("AUDIT_TOPIC", "rentmarket.audit"),
		},
		PageSize: envInt("PAGE_SIZE", DefaultPageSize),
		PendingRole: PendingRoleConfig{
			TTL: envDuration("PENDING_ROLE_TTL", DefaultPendingRoleTTL),
		},
		RateLimit: RateLimitConfig{
			Disabled: envBool("RATE_LIMIT_DISABLED"),
			Writes:   envInt("RATE_LIMIT_WRITES", 60),
			Window:   envDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Audit: AuditConfig{
			BufferSize:       envInt("AUDIT_BUFFER_SIZE", 1024),
			FailureThreshold: envInt("AUDIT_FAILURE_THRESHOLD", 5),
			Cooldown:         envDuration("AUDIT_COOLDOWN", 30*time.Second),
		},
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
