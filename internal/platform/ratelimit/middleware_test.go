package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"grantapp/pkg/requestcontext"
	"grantapp/pkg/testutil"
)

type stubLimiter struct {
	result *Result
	err    error
	keys   []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (*Result, error) {
	s.keys = append(s.keys, key)
	return s.result, s.err
}

type MiddlewareSuite struct {
	suite.Suite
	limiter *stubLimiter
	reached bool
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.limiter = &stubLimiter{}
	s.reached = false
}

func (s *MiddlewareSuite) serve(opts ...Option) *httptest.ResponseRecorder {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := NewMiddleware(s.limiter, logger, opts...)
	h := mw.Submissions(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.reached = true
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/application/submit", nil)
	req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), "203.0.113.7", ""))
	return testutil.DoRequest(h, req)
}

func (s *MiddlewareSuite) TestAllowedSetsHeaders() {
	reset := time.Unix(1757000000, 0)
	s.limiter.result = &Result{Allowed: true, Limit: 10, Remaining: 7, ResetAt: reset}

	rr := s.serve()

	s.True(s.reached)
	s.Equal([]string{"ratelimit:submit:ip:203.0.113.7"}, s.limiter.keys)
	s.Equal("10", rr.Header().Get("X-RateLimit-Limit"))
	s.Equal("7", rr.Header().Get("X-RateLimit-Remaining"))
	s.Equal("1757000000", rr.Header().Get("X-RateLimit-Reset"))
	s.Empty(rr.Header().Get("X-RateLimit-Status"))
}

func (s *MiddlewareSuite) TestLimitedReturns429() {
	s.limiter.result = &Result{Allowed: false, Limit: 10, ResetAt: time.Now().Add(time.Minute), RetryAfter: 60, Degraded: true}

	rr := s.serve()

	s.False(s.reached)
	testutil.AssertError(s.T(), rr, http.StatusTooManyRequests, MsgTooManySubmissions)
	s.Equal("60", rr.Header().Get("Retry-After"))
	s.Equal("0", rr.Header().Get("X-RateLimit-Remaining"))
	s.Equal("degraded", rr.Header().Get("X-RateLimit-Status"))
}

func (s *MiddlewareSuite) TestLimiterErrorFailsOpen() {
	s.limiter.err = errors.New("redis down")

	rr := s.serve()

	s.True(s.reached)
	s.Equal(http.StatusOK, rr.Code)
	s.Empty(rr.Header().Get("X-RateLimit-Limit"))
}

func (s *MiddlewareSuite) TestDisabledSkipsLimiter() {
	rr := s.serve(WithDisabled(true))

	s.True(s.reached)
	s.Equal(http.StatusOK, rr.Code)
	assert.Empty(s.T(), s.limiter.keys)
}
