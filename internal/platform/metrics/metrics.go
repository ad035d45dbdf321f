package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the service exports.
type Metrics struct {
	ProfilesCreated         prometheus.Counter
	ProfileCreateFailures   prometheus.Counter
	PrivilegedRoleFixes     prometheus.Counter
	SessionsResolved        *prometheus.CounterVec
	ResolveDuration         prometheus.Histogram
	VotesApplied            prometheus.Counter
	MessagesSent            prometheus.Counter
	NotificationsCreated    prometheus.Counter
	EndpointLatency         *prometheus.HistogramVec
	ConversationsAggregated prometheus.Histogram
	RateLimited             *prometheus.CounterVec
	AuditDropped            *prometheus.CounterVec
}

// New registers collectors on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProfilesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "rentmarket_profiles_created_total",
			Help: "Profiles provisioned on first authentication",
		}),
		ProfileCreateFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "rentmarket_profile_create_failures_total",
			Help: "Profile creations that failed and fell back to an unpersisted profile",
		}),
		PrivilegedRoleFixes: f.NewCounter(prometheus.CounterOpts{
			Name: "rentmarket_privileged_role_corrections_total",
			Help: "Stored profiles whose role was corrected to superadmin",
		}),
		SessionsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentmarket_sessions_resolved_total",
			Help: "Session resolutions by outcome",
		}, []string{"outcome"}),
		ResolveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentmarket_session_resolve_duration_seconds",
			Help:    "Duration of session-to-profile resolution",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		VotesApplied: f.NewCounter(prometheus.CounterOpts{
			Name: "rentmarket_votes_applied_total",
			Help: "Rating votes applied to listings",
		}),
		MessagesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "rentmarket_messages_sent_total",
			Help: "Messages appended to the log",
		}),
		NotificationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "rentmarket_notifications_created_total",
			Help: "Notifications created",
		}),
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rentmarket_http_request_duration_seconds",
			Help:    "HTTP latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ConversationsAggregated: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentmarket_conversations_per_request",
			Help:    "Number of conversation groups returned per inbox request",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentmarket_rate_limited_total",
			Help: "Requests rejected by the write rate limiter",
		}, []string{"key_type"}),
		AuditDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentmarket_audit_events_dropped_total",
			Help: "Audit events not delivered to a sink",
		}, []string{"sink", "reason"}),
	}
}

// ObserveResolve records a resolution outcome and its duration.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveResolve(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.SessionsResolved.WithLabelValues(outcome).Inc()
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncProfilesCreated() {
	if m != nil {
		m.ProfilesCreated.Inc()
	}
}

func (m *Metrics) IncProfileCreateFailures() {
	if m != nil {
		m.ProfileCreateFailures.Inc()
	}
}

func (m *Metrics) IncPrivilegedRoleFixes() {
	if m != nil {
		m.PrivilegedRoleFixes.Inc()
	}
}

func (m *Metrics) IncVotesApplied() {
	if m != nil {
		m.VotesApplied.Inc()
	}
}

func (m *Metrics) IncMessagesSent() {
	if m != nil {
		m.MessagesSent.Inc()
	}
}

func (m *Metrics) IncNotificationsCreated() {
	if m != nil {
		m.NotificationsCreated.Inc()
	}
}

func (m *Metrics) ObserveConversations(n int) {
	if m != nil {
		m.ConversationsAggregated.Observe(float64(n))
	}
}

func (m *Metrics) IncRateLimited(keyType string) {
	if m != nil {
		m.RateLimited.WithLabelValues(keyType).Inc()
	}
}

func (m *Metrics) IncAuditDropped(sink, reason string) {
	if m != nil {
		m.AuditDropped.WithLabelValues(sink, reason).Inc()
	}
}
