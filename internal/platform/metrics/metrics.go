// Package metrics exposes Prometheus counters for session activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront_auth"

// AuthMetrics groups the session counters. A nil *AuthMetrics is valid and
// records nothing.
type AuthMetrics struct {
	sessionsCreated   prometheus.Counter
	sessionsEvicted   prometheus.Counter
	rotations         prometheus.Counter
	rotationConflicts prometheus.Counter
	replays           prometheus.Counter
	revocations       *prometheus.CounterVec
	janitorDeleted    *prometheus.CounterVec
	janitorFailures   prometheus.Counter
	logins            *prometheus.CounterVec
}

// NewAuthMetrics registers the counters on reg.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	f := promauto.With(reg)
	return &AuthMetrics{
		sessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_created_total",
			Help: "Refresh tokens issued.",
		}),
		sessionsEvicted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_evicted_total",
			Help: "Active refresh tokens revoked to honour the per-user cap.",
		}),
		rotations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "token_rotations_total",
			Help: "Successful refresh token rotations.",
		}),
		rotationConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "token_rotation_conflicts_total",
			Help: "Rotations lost to a concurrent rotation of the same token.",
		}),
		replays: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "token_replays_total",
			Help: "Rotated or revoked refresh tokens presented again.",
		}),
		revocations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "token_revocations_total",
			Help: "Refresh tokens revoked, by reason.",
		}, []string{"reason"}),
		janitorDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "janitor_deleted_total",
			Help: "Refresh tokens deleted by the janitor, by kind.",
		}, []string{"kind"}),
		janitorFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "janitor_failures_total",
			Help: "Janitor passes that returned an error.",
		}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "logins_total",
			Help: "Login attempts, by method and outcome.",
		}, []string{"method", "outcome"}),
	}
}

func (m *AuthMetrics) SessionCreated() {
	if m != nil {
		m.sessionsCreated.Inc()
	}
}

func (m *AuthMetrics) SessionsEvicted(n int) {
	if m != nil && n > 0 {
		m.sessionsEvicted.Add(float64(n))
	}
}

func (m *AuthMetrics) Rotated() {
	if m != nil {
		m.rotations.Inc()
	}
}

func (m *AuthMetrics) RotationConflict() {
	if m != nil {
		m.rotationConflicts.Inc()
	}
}

func (m *AuthMetrics) Replay() {
	if m != nil {
		m.replays.Inc()
	}
}

// Revoked counts revocations; reason is one of logout, logout_all, reuse.
func (m *AuthMetrics) Revoked(reason string, n int64) {
	if m != nil && n > 0 {
		m.revocations.WithLabelValues(reason).Add(float64(n))
	}
}

func (m *AuthMetrics) JanitorDeleted(expired, revoked int64) {
	if m == nil {
		return
	}
	m.janitorDeleted.WithLabelValues("expired").Add(float64(expired))
	m.janitorDeleted.WithLabelValues("revoked").Add(float64(revoked))
}

func (m *AuthMetrics) JanitorFailed() {
	if m != nil {
		m.janitorFailures.Inc()
	}
}

// Login counts a login attempt; method is password, oauth or google_code.
func (m *AuthMetrics) Login(method string, success bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.logins.WithLabelValues(method, outcome).Inc()
}
