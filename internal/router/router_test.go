package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jaivikTh/nest-microsrv-kit/internal/config"
	"github.com/jaivikTh/nest-microsrv-kit/internal/gateway"
	"github.com/jaivikTh/nest-microsrv-kit/internal/handler"
	"github.com/jaivikTh/nest-microsrv-kit/internal/metrics"
	"github.com/jaivikTh/nest-microsrv-kit/internal/ratelimit"
	"github.com/jaivikTh/nest-microsrv-kit/internal/repository"
	"github.com/jaivikTh/nest-microsrv-kit/internal/service"
)

// echoCaller leaves every reply at its zero value and remembers the last
// payload it was given.
type echoCaller struct {
	last any
}

func (e *echoCaller) Call(_ context.Context, _ string, payload any, _ any) error {
	e.last = payload
	return nil
}

type testServer struct {
	*httptest.Server
	auth   *service.AuthService
	orders *echoCaller
}

func newTestServer(t *testing.T, tiers ...ratelimit.Tier) *testServer {
	t.Helper()

	cfg := config.Defaults()
	cfg.MaxPayloadBytes = 1 << 10

	if len(tiers) == 0 {
		tiers = []ratelimit.Tier{{Name: "short", Limit: 1000, TTL: time.Minute}}
	}

	db := repository.NewMemoryDB()
	auth := service.NewAuthService(db.Users(), "router-secret", time.Hour, service.WithPasswordCost(bcrypt.MinCost))
	users, orders := &echoCaller{}, &echoCaller{}
	dispatcher := gateway.NewDispatcher(users, orders)

	h := New(Deps{
		Config:   cfg,
		Verifier: auth,
		Limiter:  ratelimit.New(ratelimit.NewMemoryStore(), tiers...),
		Metrics:  metrics.New("api-gateway"),
	}, Handlers{
		Auth:   handler.NewAuthHandler(auth),
		User:   handler.NewUserHandler(dispatcher),
		Order:  handler.NewOrderHandler(dispatcher),
		Health: handler.NewHealthHandler("api-gateway", "1.0.0", "test"),
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, auth: auth, orders: orders}
}

func (s *testServer) request(t *testing.T, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope map[string]any
	_ = json.Unmarshal(raw, &envelope)
	return resp, envelope
}

func (s *testServer) token(t *testing.T) (string, int64) {
	t.Helper()

	res, err := s.auth.Register(context.Background(), "Router User", "router@example.com", "Str0ng@Pass")
	require.NoError(t, err)
	return res.AccessToken, res.User.ID
}

func TestHealthIsPublicAndHardened(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, env := srv.request(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Service is healthy", env["message"])
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Empty(t, resp.Header.Get("X-Powered-By"))
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	srv.request(t, http.MethodGet, "/health", "", "")

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "microshop_http_requests_total")
}

func TestUnknownRouteAndMethod(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, env := srv.request(t, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, true, env["error"])
	assert.Equal(t, "Not Found", env["errorType"])

	resp, env = srv.request(t, http.MethodPatch, "/users", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Method not allowed", env["message"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	for _, path := range []string{"/users", "/orders", "/auth/profile"} {
		resp, env := srv.request(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		assert.Equal(t, "Unauthorized", env["errorType"], path)
	}

	resp, env := srv.request(t, http.MethodGet, "/users", "not.a.token", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid or expired token", env["message"])
}

func TestGuardChain(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	token, _ := srv.token(t)

	t.Run("threat in query", func(t *testing.T) {
		resp, env := srv.request(t, http.MethodGet, "/users?q=%3Cscript%3Ealert(1)%3C/script%3E", token, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid input detected", env["message"])
	})

	t.Run("threat in public body", func(t *testing.T) {
		resp, env := srv.request(t, http.MethodPost, "/auth/login", "", `{"email":"a@b.co","password":"x' OR 1=1 --"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid input detected", env["message"])
	})

	t.Run("payload too large", func(t *testing.T) {
		body := `{"product":"` + strings.Repeat("a", 2<<10) + `","amount":1}`
		resp, env := srv.request(t, http.MethodPost, "/orders", token, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Request payload too large", env["message"])
	})

	t.Run("sanitized before the handler", func(t *testing.T) {
		resp, _ := srv.request(t, http.MethodPost, "/orders", token, `{"product":"  Widget  ","amount":3}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		payload, err := json.Marshal(srv.orders.last)
		require.NoError(t, err)
		assert.Contains(t, string(payload), `"product":"Widget"`)
	})
}

func TestRateLimitedRoute(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, ratelimit.Tier{Name: "short", Limit: 2, TTL: time.Minute})

	for range 2 {
		resp, _ := srv.request(t, http.MethodGet, "/health", "", "")
		require.Equal(t, http.StatusOK, resp.StatusCode, "health is outside the guard")
	}

	body := `{"email":"nobody@example.com","password":"Str0ng@Pass"}`
	for range 2 {
		resp, _ := srv.request(t, http.MethodPost, "/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, env := srv.request(t, http.MethodPost, "/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests. Please try again later.", env["message"])
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	resp, _ = srv.request(t, http.MethodPost, "/auth/register", "", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "other routes keep their own budget")
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, ratelimit.Tier{Name: "long", Limit: 3, TTL: time.Minute})

	codes := make([]int, 0, 4)
	for i := range 4 {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/login", strings.NewReader(`{"email":"nobody@example.com","password":"Str0ng@Pass"}`))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "1.2.3."+strconv.Itoa(i))

		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}

	assert.Equal(t, []int{
		http.StatusUnauthorized,
		http.StatusUnauthorized,
		http.StatusUnauthorized,
		http.StatusTooManyRequests,
	}, codes)
}

func TestOrdersForUserForbidden(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	token, id := srv.token(t)

	resp, env := srv.request(t, http.MethodGet, "/orders/user/999", token, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Access denied: You can only access your own orders", env["message"])
	assert.Nil(t, srv.orders.last)

	resp, _ = srv.request(t, http.MethodGet, "/orders/user/"+jsonInt(id), token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, srv.orders.last)
}

func jsonInt(n int64) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}
