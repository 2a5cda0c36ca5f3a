package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/escuela/internal/auth"
	"github.com/example/escuela/internal/logging"
)

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(3)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		require.True(t, rl.Allow("10.0.0.1"))
	}
	require.False(t, rl.Allow("10.0.0.1"))
	require.True(t, rl.Allow("10.0.0.2"), "buckets are per client")

	// one token refills every 20s at 3/min
	now = now.Add(21 * time.Second)
	require.True(t, rl.Allow("10.0.0.1"))
	require.False(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(5)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(9 * time.Minute)
	rl.Allow("recent")
	require.Equal(t, 2, rl.Len())

	now = now.Add(2 * time.Minute)
	rl.Sweep()
	require.Equal(t, 1, rl.Len())
}

func TestRateLimiterRunStopsWithContext(t *testing.T) {
	rl := NewRateLimiter(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestGatePutsIdentityInContext(t *testing.T) {
	s := newTestServer(t, testConfig())
	tok, _, err := s.app.Codec.Issue("profe@escuela.com", auth.RoleTeacher)
	require.NoError(t, err)

	var seen auth.Identity
	h := s.app.gate(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}, auth.RoleTeacher)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "profe@escuela.com", seen.Email)
	require.Equal(t, auth.RoleTeacher, seen.Role)

	// handler never runs for a role outside the set
	called := false
	h = s.app.gate(func(w http.ResponseWriter, r *http.Request) { called = true }, auth.RoleAdmin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, called)
}

func TestLoggingKeepsValidRequestID(t *testing.T) {
	a := &App{Log: logging.Discard()}
	var got string
	h := a.Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	const id = "6f1c2a5e-1f0b-4c4e-9a55-0d7f3f3b2c11"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, id, got)
	require.Equal(t, id, rec.Header().Get("X-Request-ID"))
	require.Equal(t, http.StatusTeapot, rec.Code)

	req.Header.Set("X-Request-ID", "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotEqual(t, "not-a-uuid", got)
	require.Len(t, got, 36)
}

func TestResponseWriterRecordsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := wrapResponseWriter(rec)
	require.Same(t, rw, wrapResponseWriter(rw))

	_, _ = rw.Write([]byte("ok"))
	rw.WriteHeader(http.StatusInternalServerError)
	require.Equal(t, http.StatusOK, rw.statusCode)
}
