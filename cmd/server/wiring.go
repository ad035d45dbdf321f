package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	messagingHandler "rentmarket/internal/messaging/handler"
	messagingService "rentmarket/internal/messaging/service"
	messagingStore "rentmarket/internal/messaging/store"
	notificationHandler "rentmarket/internal/notification/handler"
	notificationService "rentmarket/internal/notification/service"
	notificationStore "rentmarket/internal/notification/store"
	"rentmarket/internal/platform/config"
	"rentmarket/internal/platform/metrics"
	"rentmarket/internal/platform/middleware"
	"rentmarket/internal/platform/postgres"
	"rentmarket/internal/platform/ratelimit"
	platformRedis "rentmarket/internal/platform/redis"
	propertyHandler "rentmarket/internal/property/handler"
	propertyService "rentmarket/internal/property/service"
	propertyStore "rentmarket/internal/property/store"
	"rentmarket/internal/session/handoff"
	sessionHandler "rentmarket/internal/session/handler"
	sessionService "rentmarket/internal/session/service"
	"rentmarket/internal/session/token"
	userHandler "rentmarket/internal/user/handler"
	userService "rentmarket/internal/user/service"
	userStore "rentmarket/internal/user/store"
	"rentmarket/pkg/platform/audit"
	auditKafka "rentmarket/pkg/platform/audit/kafka"
	"rentmarket/pkg/platform/httputil"
)

type userRepo interface {
	sessionService.ProfileStore
	messagingService.UserDirectory
}

type propertyRepo interface {
	propertyService.PropertyStore
	messagingService.PropertyDirectory
}

type pendingRoles interface {
	sessionService.PendingRoleStore
	sessionHandler.PendingRoles
}

// infra holds the backing stores and external clients chosen from config.
type infra struct {
	db    *sql.DB
	redis *platformRedis.Client
	kafka *auditKafka.Publisher
	async *audit.Async

	users         userRepo
	properties    propertyRepo
	messages      messagingService.MessageStore
	notifications notificationService.NotificationStore
	pending       pendingRoles
	limits        ratelimit.Store
	audit         audit.Publisher
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger, m *metrics.Metrics) (*infra, error) {
	in := &infra{}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, postgres.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		in.db = db
		in.users = userStore.NewPostgres(db)
		in.properties = propertyStore.NewPostgres(db)
		in.messages = messagingStore.NewPostgres(db)
		in.notifications = notificationStore.NewPostgres(db)
	} else {
		in.users = userStore.NewInMemory()
		in.properties = propertyStore.NewInMemory()
		in.messages = messagingStore.NewInMemory()
		in.notifications = notificationStore.NewInMemory()
	}

	rc, err := platformRedis.New(ctx, cfg.Redis)
	if err != nil {
		in.Close(log)
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if rc != nil {
		in.redis = rc
		in.pending = handoff.NewRedisStore(rc.Client, cfg.PendingRole.TTL)
		in.limits = ratelimit.NewRedisStore(rc.Client)
	} else {
		in.pending = handoff.NewMemoryStore(cfg.PendingRole.TTL)
		in.limits = ratelimit.NewInMemory()
	}

	logSink := audit.NewLogPublisher(log)
	in.audit = logSink
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := auditKafka.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, auditKafka.WithLogger(log))
		if err != nil {
			in.Close(log)
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		if err := kp.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		dropped := func(reason string) { m.IncAuditDropped("kafka", reason) }
		guarded := audit.NewGuarded(kp,
			audit.NewCircuitBreaker(cfg.Audit.FailureThreshold, cfg.Audit.Cooldown),
			audit.WithDropHook(dropped),
		)
		in.kafka = kp
		in.async = audit.NewAsync(guarded, cfg.Audit.BufferSize, log, dropped)
		in.audit = audit.Fanout{logSink, in.async}
	}
	return in, nil
}

// RunAudit delivers buffered broker events until ctx is done. It returns
// immediately when no broker is configured.
func (in *infra) RunAudit(ctx context.Context) error {
	if in.async == nil {
		return nil
	}
	return in.async.Run(ctx, 5*time.Second)
}

func (in *infra) StorageKind() string {
	if in.db != nil {
		return "postgres"
	}
	return "memory"
}

func (in *infra) HandoffKind() string {
	if in.redis != nil {
		return "redis"
	}
	return "memory"
}

func (in *infra) Close(log *slog.Logger) {
	if in.kafka != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := in.kafka.Close(ctx); err != nil {
			log.Warn("failed to flush audit publisher", "error", err)
		}
		cancel()
	}
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.db != nil {
		_ = in.db.Close()
	}
}

// Health reports the first failing dependency.
func (in *infra) Health(ctx context.Context) error {
	if in.db != nil {
		if err := in.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if in.redis != nil {
		if err := in.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

type app struct {
	verifier      *token.Verifier
	session       *sessionHandler.Handler
	users         *userHandler.Handler
	properties    *propertyHandler.Handler
	messaging     *messagingHandler.Handler
	notifications *notificationHandler.Handler
}

func buildApp(cfg config.Server, log *slog.Logger, m *metrics.Metrics, in *infra) *app {
	verifier := token.NewVerifier(cfg.Identity.JWTSecret, cfg.Identity.Issuer)

	resolver := sessionService.New(in.users, in.pending,
		sessionService.WithLogger(log),
		sessionService.WithMetrics(m),
		sessionService.WithAuditPublisher(in.audit),
		sessionService.WithPrivilegedEmail(cfg.PrivilegedEmail),
	)
	users := userService.New(in.users, userService.WithLogger(log))
	props := propertyService.New(in.properties,
		propertyService.WithLogger(log),
		propertyService.WithMetrics(m),
		propertyService.WithAuditPublisher(in.audit),
		propertyService.WithPageSize(cfg.PageSize),
	)
	msgs := messagingService.New(in.messages, in.users, in.properties,
		messagingService.WithLogger(log),
		messagingService.WithMetrics(m),
		messagingService.WithAuditPublisher(in.audit),
	)
	notifications := notificationService.New(in.notifications, in.properties,
		notificationService.WithLogger(log),
		notificationService.WithMetrics(m),
		notificationService.WithAuditPublisher(in.audit),
	)

	return &app{
		verifier:      verifier,
		session:       sessionHandler.New(resolver, verifier, in.pending, log),
		users:         userHandler.New(users, log),
		properties:    propertyHandler.New(props, users, log),
		messaging:     messagingHandler.New(msgs, users, log),
		notifications: notificationHandler.New(notifications, users, log),
	}
}

func newRouter(cfg config.Server, log *slog.Logger, m *metrics.Metrics, a *app, in *infra) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := in.Health(ctx); err != nil {
			log.WarnContext(ctx, "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(a.verifier, log))
		if !cfg.RateLimit.Disabled {
			r.Use(ratelimit.Writes(in.limits, cfg.RateLimit.Writes, cfg.RateLimit.Window, m, log))
		}
		a.session.Register(r)
		a.users.Register(r)
		a.properties.Register(r)
		a.messaging.Register(r)
		a.notifications.Register(r)
	})
	return r
}
