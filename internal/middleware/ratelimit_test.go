package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
	"github.com/jaivikTh/nest-microsrv-kit/internal/ratelimit"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func rateLimitedRouter(limiter *ratelimit.Limiter, principal *model.Principal) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		if principal != nil {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, req.WithContext(WithPrincipal(req.Context(), *principal)))
				})
			})
		}
		r.Use(RateLimit(limiter, nil))
		r.Get("/orders/{id}", okHandler)
		r.Get("/users", okHandler)
	})
	return r
}

func get(h http.Handler, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_RejectsLimitPlusOne(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := ratelimit.NewMemoryStore().WithClock(clock.Now)
	limiter := ratelimit.New(store, ratelimit.Tier{Name: "short", Limit: 3, TTL: time.Second})
	h := rateLimitedRouter(limiter, nil)

	for i := range 3 {
		assert.Equal(t, http.StatusOK, get(h, "/users", "10.0.0.1").Code, "request %d", i+1)
	}

	rec := get(h, "/users", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many requests. Please try again later.")
	assert.Contains(t, rec.Body.String(), `"errorType":"Too Many Requests"`)

	clock.Advance(1100 * time.Millisecond)
	assert.Equal(t, http.StatusOK, get(h, "/users", "10.0.0.1").Code, "window reset")
}

func TestRateLimit_KeyedByRoutePatternAndClient(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	limiter := ratelimit.New(store, ratelimit.Tier{Name: "short", Limit: 1, TTL: time.Minute})
	h := rateLimitedRouter(limiter, nil)

	require.Equal(t, http.StatusOK, get(h, "/orders/1", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "/orders/2", "10.0.0.1").Code, "same route pattern")
	assert.Equal(t, http.StatusOK, get(h, "/users", "10.0.0.1").Code, "other route")
	assert.Equal(t, http.StatusOK, get(h, "/orders/1", "10.0.0.2").Code, "other client")
}

func TestRateLimit_KeyedByPrincipal(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	limiter := ratelimit.New(store, ratelimit.Tier{Name: "short", Limit: 1, TTL: time.Minute})

	alice := rateLimitedRouter(limiter, &model.Principal{UserID: 1})
	bob := rateLimitedRouter(limiter, &model.Principal{UserID: 2})

	require.Equal(t, http.StatusOK, get(alice, "/users", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, get(bob, "/users", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(alice, "/users", "10.0.0.1").Code)
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, []ratelimit.Tier) ([]ratelimit.Window, error) {
	return nil, errors.New("redis down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(failingStore{}, ratelimit.Tier{Name: "short", Limit: 1, TTL: time.Second})
	h := rateLimitedRouter(limiter, nil)

	for range 5 {
		assert.Equal(t, http.StatusOK, get(h, "/users", "10.0.0.1").Code)
	}
}

func TestRateLimit_IgnoresForwardedHeadersFromUntrustedPeer(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Tier{Name: "long", Limit: 3, TTL: time.Minute})

	r := chi.NewRouter()
	r.Use(ClientIP(nil))
	r.With(RateLimit(limiter, nil)).Get("/users", okHandler)

	allowed := 0
	for i := range 50 {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("1.2.3.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("5.6.7.%d", i))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code == http.StatusOK {
			allowed++
		}
		if i == 3 {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code, "request limit+1")
		}
	}
	assert.Equal(t, 3, allowed)
}
