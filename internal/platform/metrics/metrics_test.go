package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAuthMetrics_Counts(t *testing.T) {
	m := NewAuthMetrics(prometheus.NewRegistry())

	m.SessionCreated()
	m.SessionCreated()
	m.SessionsEvicted(3)
	m.Revoked("logout", 1)
	m.Revoked("logout_all", 4)
	m.JanitorDeleted(2, 5)
	m.Login("password", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsCreated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessionsEvicted))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.revocations.WithLabelValues("logout_all")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.janitorDeleted.WithLabelValues("revoked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("password", "failure")))
}

func TestAuthMetrics_NilIsNoop(t *testing.T) {
	var m *AuthMetrics
	assert.NotPanics(t, func() {
		m.SessionCreated()
		m.SessionsEvicted(1)
		m.Rotated()
		m.RotationConflict()
		m.Replay()
		m.Revoked("logout", 1)
		m.JanitorDeleted(1, 1)
		m.JanitorFailed()
		m.Login("oauth", true)
	})
}
