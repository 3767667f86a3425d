package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/storefront_auth/internal/adapters/database/memory"
	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/SscSPs/storefront_auth/internal/core/services"
	"github.com/SscSPs/storefront_auth/internal/platform/metrics"
	"github.com/SscSPs/storefront_auth/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

// testClock is a manually advanced clock shared by the services under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// barrierRepo holds every MarkRotated call until `parties` callers arrived,
// so concurrent rotations are guaranteed to overlap.
type barrierRepo struct {
	*memory.RefreshTokenRepository
	arrived sync.WaitGroup
}

func newBarrierRepo(parties int) *barrierRepo {
	r := &barrierRepo{RefreshTokenRepository: memory.NewRefreshTokenRepository()}
	r.arrived.Add(parties)
	return r
}

func (r *barrierRepo) MarkRotated(ctx context.Context, tokenID, replacedByHash string, now time.Time) (bool, error) {
	r.arrived.Done()
	r.arrived.Wait()
	return r.RefreshTokenRepository.MarkRotated(ctx, tokenID, replacedByHash, now)
}

type SessionServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *testClock
	repo    *memory.RefreshTokenRepository
	metrics *metrics.AuthMetrics
	svc     portssvc.SessionSvcFacade
}

func (s *SessionServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = newTestClock()
	s.repo = memory.NewRefreshTokenRepository()
	s.metrics = metrics.NewAuthMetrics(prometheus.NewRegistry())
	s.svc = s.newService(services.SessionConfig{TTL: time.Hour, MaxActive: 5, RotationEnabled: true})
}

func (s *SessionServiceTestSuite) newService(cfg services.SessionConfig) portssvc.SessionSvcFacade {
	return services.NewSessionService(s.repo, cfg,
		services.WithSessionClock(s.clock.Now),
		services.WithSessionMetrics(s.metrics))
}

func (s *SessionServiceTestSuite) createSessions(userID string, n int) []string {
	raws := make([]string, n)
	for i := range raws {
		raw, _, err := s.svc.CreateSession(s.ctx, userID)
		s.Require().NoError(err)
		raws[i] = raw
		s.clock.Advance(time.Second)
	}
	return raws
}

func (s *SessionServiceTestSuite) TestCreateSession_StoresOnlyHash() {
	raw, token, err := s.svc.CreateSession(s.ctx, "user-1")
	s.Require().NoError(err)

	s.Len(raw, 86, "64 bytes base64url without padding")
	s.Len(token.TokenHash, 64)
	s.NotEqual(raw, token.TokenHash)
	s.Equal(utils.HashRefreshToken(raw), token.TokenHash)
	s.Len(token.ID, 26, "ULID")
	s.Equal(s.clock.Now().Add(time.Hour), token.ExpiresAt)

	verified, err := s.svc.Verify(s.ctx, raw)
	s.Require().NoError(err)
	s.Equal(token.ID, verified.ID)
}

func (s *SessionServiceTestSuite) TestCreateSession_RejectsEmptyUser() {
	_, _, err := s.svc.CreateSession(s.ctx, "")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *SessionServiceTestSuite) TestSessionCap_EvictsOldestFirst() {
	raws := s.createSessions("user-1", 8)

	active, err := s.svc.ListActiveSessions(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Len(active, 5)

	for i, raw := range raws {
		_, err := s.svc.Verify(s.ctx, raw)
		if i < 3 {
			s.ErrorIs(err, apperrors.ErrTokenRevoked, "session %d should be evicted", i)
		} else {
			s.NoError(err, "session %d should be active", i)
		}
	}
}

func (s *SessionServiceTestSuite) TestSessionCap_IsPerUser() {
	s.createSessions("user-1", 5)
	s.createSessions("user-2", 5)

	for _, user := range []string{"user-1", "user-2"} {
		active, err := s.svc.ListActiveSessions(s.ctx, user)
		s.Require().NoError(err)
		s.Len(active, 5)
	}
}

// TTL=1h, cap=5: six logins leave five active, then rotating #3 keeps the
// rest intact and only the successor verifies.
func (s *SessionServiceTestSuite) TestCapAndRotation_WorkedExample() {
	raws := s.createSessions("U", 6)

	active, err := s.svc.ListActiveSessions(s.ctx, "U")
	s.Require().NoError(err)
	s.Require().Len(active, 5)
	_, err = s.svc.Verify(s.ctx, raws[0])
	s.ErrorIs(err, apperrors.ErrTokenRevoked)

	oldHash := utils.HashRefreshToken(raws[2])
	newRaw, successor, err := s.svc.Rotate(s.ctx, raws[2])
	s.Require().NoError(err)
	s.NotEqual(raws[2], newRaw)

	old, err := s.repo.FindByTokenHash(s.ctx, oldHash)
	s.Require().NoError(err)
	s.Equal(domain.TokenRotated, old.State(s.clock.Now()))
	s.Require().NotNil(old.ReplacedByTokenHash)
	s.Equal(successor.TokenHash, *old.ReplacedByTokenHash)

	_, err = s.svc.Verify(s.ctx, raws[2])
	s.ErrorIs(err, apperrors.ErrTokenRevoked)
	_, err = s.svc.Verify(s.ctx, newRaw)
	s.NoError(err)

	active, err = s.svc.ListActiveSessions(s.ctx, "U")
	s.Require().NoError(err)
	s.Len(active, 5, "rotation does not evict other sessions")
}

func (s *SessionServiceTestSuite) TestVerify_States() {
	_, err := s.svc.Verify(s.ctx, "")
	s.ErrorIs(err, apperrors.ErrInvalidToken)

	_, err = s.svc.Verify(s.ctx, "never-issued")
	s.ErrorIs(err, apperrors.ErrInvalidToken)

	raw := s.createSessions("user-1", 1)[0]
	s.clock.Advance(time.Hour)
	_, err = s.svc.Verify(s.ctx, raw)
	s.ErrorIs(err, apperrors.ErrTokenExpired, "expiresAt == now is expired")

	_, _, err = s.svc.Rotate(s.ctx, raw)
	s.ErrorIs(err, apperrors.ErrTokenExpired)
}

func (s *SessionServiceTestSuite) TestRevoke_IsIdempotent() {
	raw := s.createSessions("user-1", 1)[0]
	hash := utils.HashRefreshToken(raw)

	s.Require().NoError(s.svc.Revoke(s.ctx, raw))
	first, err := s.repo.FindByTokenHash(s.ctx, hash)
	s.Require().NoError(err)
	s.Require().NotNil(first.RevokedAt)

	s.clock.Advance(time.Minute)
	s.Require().NoError(s.svc.Revoke(s.ctx, raw))
	second, err := s.repo.FindByTokenHash(s.ctx, hash)
	s.Require().NoError(err)
	s.Equal(*first.RevokedAt, *second.RevokedAt)

	s.NoError(s.svc.Revoke(s.ctx, "unknown-token"))
	s.NoError(s.svc.Revoke(s.ctx, ""))
}

func (s *SessionServiceTestSuite) TestRotate_Disabled_ReturnsSameToken() {
	svc := s.newService(services.SessionConfig{TTL: time.Hour, MaxActive: 5, RotationEnabled: false})
	raw, token, err := svc.CreateSession(s.ctx, "user-1")
	s.Require().NoError(err)

	again, same, err := svc.Rotate(s.ctx, raw)
	s.Require().NoError(err)
	s.Equal(raw, again)
	s.Equal(token.ID, same.ID)
	s.Equal(1, s.repo.Len())
}

func (s *SessionServiceTestSuite) TestRotate_ReplayWithoutReuseDetection() {
	raws := s.createSessions("user-1", 2)
	_, _, err := s.svc.Rotate(s.ctx, raws[0])
	s.Require().NoError(err)

	_, _, err = s.svc.Rotate(s.ctx, raws[0])
	s.ErrorIs(err, apperrors.ErrTokenRevoked)

	_, err = s.svc.Verify(s.ctx, raws[1])
	s.NoError(err, "other sessions survive a replay by default")
}

func (s *SessionServiceTestSuite) TestRotate_ReplayWithReuseDetection() {
	svc := s.newService(services.SessionConfig{TTL: time.Hour, MaxActive: 5, RotationEnabled: true, ReuseDetection: true})
	first, _, err := svc.CreateSession(s.ctx, "user-1")
	s.Require().NoError(err)
	other, _, err := svc.CreateSession(s.ctx, "user-1")
	s.Require().NoError(err)

	successor, _, err := svc.Rotate(s.ctx, first)
	s.Require().NoError(err)

	_, _, err = svc.Rotate(s.ctx, first)
	s.ErrorIs(err, apperrors.ErrTokenRevoked)

	for _, raw := range []string{other, successor} {
		_, err := svc.Verify(s.ctx, raw)
		s.ErrorIs(err, apperrors.ErrTokenRevoked)
	}
}

func (s *SessionServiceTestSuite) TestRotate_ConcurrentCallsHaveOneWinner() {
	repo := newBarrierRepo(2)
	svc := services.NewSessionService(repo, services.SessionConfig{TTL: time.Hour, MaxActive: 5, RotationEnabled: true},
		services.WithSessionClock(s.clock.Now))

	raw, _, err := svc.CreateSession(s.ctx, "user-1")
	s.Require().NoError(err)

	type outcome struct {
		raw string
		err error
	}
	results := make(chan outcome, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			newRaw, _, err := svc.Rotate(s.ctx, raw)
			results <- outcome{newRaw, err}
		}()
	}
	wg.Wait()
	close(results)

	var winners, conflicts int
	var winnerRaw string
	for r := range results {
		switch {
		case r.err == nil:
			winners++
			winnerRaw = r.raw
		case errors.Is(r.err, apperrors.ErrConcurrentRotation):
			conflicts++
		default:
			s.Failf("unexpected error", "%v", r.err)
		}
	}
	s.Equal(1, winners)
	s.Equal(1, conflicts)

	_, err = svc.Verify(s.ctx, winnerRaw)
	s.NoError(err)

	active, err := svc.ListActiveSessions(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Len(active, 1, "the loser's successor must be revoked")
}

func (s *SessionServiceTestSuite) TestRotate_ConcurrentCallsAtCapKeepOtherSessions() {
	repo := newBarrierRepo(2)
	svc := services.NewSessionService(repo, services.SessionConfig{TTL: time.Hour, MaxActive: 2, RotationEnabled: true},
		services.WithSessionClock(s.clock.Now))

	otherRaw, _, err := svc.CreateSession(s.ctx, "user-1")
	s.Require().NoError(err)
	s.clock.Advance(time.Second)
	mineRaw, _, err := svc.CreateSession(s.ctx, "user-1")
	s.Require().NoError(err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Rotate(s.ctx, mineRaw)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var winners, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, apperrors.ErrConcurrentRotation):
			conflicts++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, winners)
	s.Equal(1, conflicts)

	_, err = svc.Verify(s.ctx, otherRaw)
	s.NoError(err, "a rotation never evicts another device")

	active, err := svc.ListActiveSessions(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Len(active, 2)
}

func (s *SessionServiceTestSuite) TestRevokeAll() {
	raws := s.createSessions("user-1", 3)
	s.createSessions("user-2", 1)

	n, err := s.svc.RevokeAll(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(int64(3), n)

	for _, raw := range raws {
		_, err := s.svc.Verify(s.ctx, raw)
		s.ErrorIs(err, apperrors.ErrTokenRevoked)
	}
	active, err := s.svc.ListActiveSessions(s.ctx, "user-2")
	s.Require().NoError(err)
	s.Len(active, 1)
}

func TestSessionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceTestSuite))
}
