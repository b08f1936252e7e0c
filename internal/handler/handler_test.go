package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jaivikTh/nest-microsrv-kit/internal/command"
	"github.com/jaivikTh/nest-microsrv-kit/internal/gateway"
	"github.com/jaivikTh/nest-microsrv-kit/internal/middleware"
	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
	"github.com/jaivikTh/nest-microsrv-kit/internal/repository"
	"github.com/jaivikTh/nest-microsrv-kit/internal/service"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

const testSecret = "handler-test-secret"

// stubCaller answers commands from a table of canned replies.
type stubCaller struct {
	replies map[string]any
	errs    map[string]error
	calls   []string
}

func (s *stubCaller) Call(_ context.Context, cmd string, _ any, out any) error {
	s.calls = append(s.calls, cmd)
	if err := s.errs[cmd]; err != nil {
		return err
	}
	raw, err := json.Marshal(s.replies[cmd])
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

type fixture struct {
	router http.Handler
	auth   *service.AuthService
	users  *stubCaller
	orders *stubCaller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := repository.NewMemoryDB()
	auth := service.NewAuthService(db.Users(), testSecret, time.Hour, service.WithPasswordCost(bcrypt.MinCost))
	users := &stubCaller{replies: map[string]any{}, errs: map[string]error{}}
	orders := &stubCaller{replies: map[string]any{}, errs: map[string]error{}}
	dispatcher := gateway.NewDispatcher(users, orders)

	authHandler := NewAuthHandler(auth)
	userHandler := NewUserHandler(dispatcher)
	orderHandler := NewOrderHandler(dispatcher)
	healthHandler := NewHealthHandler("api-gateway", "1.2.3", "test")

	r := chi.NewRouter()
	r.Get("/health", Adapt(healthHandler.Health))
	r.Post("/auth/register", Adapt(authHandler.Register))
	r.Post("/auth/login", Adapt(authHandler.Login))

	r.Group(func(p chi.Router) {
		p.Use(middleware.RequireAuth(auth))
		p.Get("/auth/profile", Adapt(authHandler.Profile))
		p.Post("/auth/verify", Adapt(authHandler.Verify))
		p.Get("/users/{id}", Adapt(userHandler.Get))
		p.Post("/users", Adapt(userHandler.Create))
		p.Put("/users/{id}", Adapt(userHandler.Update))
		p.Delete("/users/{id}", Adapt(userHandler.Delete))
		p.Get("/orders", Adapt(orderHandler.List))
		p.Post("/orders", Adapt(orderHandler.Create))
		p.Get("/orders/{id}", Adapt(orderHandler.Get))
		p.Get("/orders/user/{userId}", Adapt(orderHandler.ListByUser))
	})

	return &fixture{router: r, auth: auth, users: users, orders: orders}
}

func (f *fixture) do(t *testing.T, method, target, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return rec, envelope
}

func (f *fixture) register(t *testing.T, email string) (string, int64) {
	t.Helper()

	res, err := f.auth.Register(context.Background(), "Alice", email, "Str0ng@Pass")
	require.NoError(t, err)
	return res.AccessToken, res.User.ID
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/auth/register", "", `{"name":"Alice","email":"alice@example.com","password":"Str0ng@Pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, false, env["error"])
	assert.Equal(t, "User registered successfully", env["message"])

	data := env["data"].(map[string]any)
	assert.NotEmpty(t, data["access_token"])
	assert.Equal(t, "Bearer", data["token_type"])
	assert.NotContains(t, data["user"], "password")

	rec, env = f.do(t, http.MethodPost, "/auth/login", "", `{"email":"alice@example.com","password":"Str0ng@Pass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User logged in successfully", env["message"])

	rec, env = f.do(t, http.MethodPost, "/auth/login", "", `{"email":"alice@example.com","password":"Wr0ng@Pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", env["message"])
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/auth/register", "", `{"name":"A","email":"nope"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, true, env["error"])
	assert.Equal(t, "Validation Error", env["errorType"])
	assert.Equal(t, []any{
		"name must be longer than or equal to 2 characters",
		"email must be an email",
		"password should not be empty",
	}, env["message"])
	assert.Nil(t, env["data"])
}

func TestRegisterRejectsMalformedBodies(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		body    string
		message string
	}{
		"syntax":        {`{"name":`, "Invalid JSON body"},
		"trailing data": {`{"name":"Al","email":"a@b.co","password":"x"} {}`, "Invalid JSON body"},
		"unknown field": {`{"name":"Al","email":"a@b.co","password":"x","role":"admin"}`, "property role should not exist"},
		"wrong type":    {`{"name":42,"email":"a@b.co","password":"x"}`, "name must be a string"},
		"not an object": {`[1,2]`, "Request body must be a JSON object"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			rec, env := f.do(t, http.MethodPost, "/auth/register", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.message, env["message"])
		})
	}
}

func TestProfileAndVerify(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	token, id := f.register(t, "bob@example.com")

	rec, env := f.do(t, http.MethodGet, "/auth/profile", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Profile retrieved successfully", env["message"])
	profile := env["data"].(map[string]any)
	assert.Equal(t, float64(id), profile["id"])
	assert.Equal(t, "bob@example.com", profile["email"])
	assert.NotContains(t, profile, "password")
	assert.NotContains(t, profile, "PasswordHash")

	rec, env = f.do(t, http.MethodPost, "/auth/verify", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Token is valid", env["message"])
	assert.Equal(t, map[string]any{
		"valid": true,
		"user":  map[string]any{"userId": float64(id), "email": "bob@example.com", "name": "Alice"},
	}, env["data"])

	rec, env = f.do(t, http.MethodGet, "/auth/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing or invalid authorization header", env["message"])
}

func TestUserRoutes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	token, _ := f.register(t, "carol@example.com")

	f.users.replies[command.GetUser] = model.User{ID: 7, Name: "Dave", Email: "dave@example.com"}
	rec, env := f.do(t, http.MethodGet, "/users/7", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User retrieved successfully", env["message"])

	rec, env = f.do(t, http.MethodGet, "/users/abc", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed (numeric string is expected)", env["message"])

	f.users.replies[command.CreateUser] = model.User{ID: 8, Name: "Erin", Email: "erin@example.com"}
	rec, env = f.do(t, http.MethodPost, "/users", token, `{"name":"Erin","email":"erin@example.com"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User created successfully", env["message"])

	rec, _ = f.do(t, http.MethodPut, "/users/8", token, `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	f.users.replies[command.UpdateUser] = model.User{ID: 8, Name: "Erin B", Email: "erin@example.com"}
	rec, env = f.do(t, http.MethodPut, "/users/8", token, `{"name":"Erin B"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User updated successfully", env["message"])

	f.users.errs[command.DeleteUser] = apierror.NotFound("User not found")
	rec, env = f.do(t, http.MethodDelete, "/users/99", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", env["errorType"])
	assert.Equal(t, "User not found", env["message"])
}

func TestOrderRoutes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	token, id := f.register(t, "frank@example.com")

	f.orders.replies[command.CreateOrder] = model.Order{ID: 1, Product: "X", Amount: 10, UserID: id}
	rec, env := f.do(t, http.MethodPost, "/orders", token, `{"product":"X","amount":10.00}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Order created successfully", env["message"])
	assert.Equal(t, float64(id), env["data"].(map[string]any)["userId"])

	rec, env = f.do(t, http.MethodPost, "/orders", token, `{"product":"X","amount":10.001}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []any{"amount must be a number with at most 2 decimal places"}, env["message"])

	f.orders.replies[command.GetUserOrders] = []model.Order{}
	rec, env = f.do(t, http.MethodGet, "/orders", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, env["data"])

	f.orders.errs[command.GetOrder] = apierror.NotFound("Order not found")
	rec, env = f.do(t, http.MethodGet, "/orders/5", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", env["message"])
}

func TestOrdersForAnotherUserIsForbidden(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	token, id := f.register(t, "gina@example.com")

	before := len(f.orders.calls)
	rec, env := f.do(t, http.MethodGet, "/orders/user/"+jsonNumber(id+1), token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied: You can only access your own orders", env["message"])
	assert.Len(t, f.orders.calls, before)

	f.orders.replies[command.GetUserOrders] = []model.Order{{ID: 3, Product: "Y", Amount: 2.5, UserID: id}}
	rec, env = f.do(t, http.MethodGet, "/orders/user/"+jsonNumber(id), token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User orders retrieved successfully", env["message"])
}

func TestHealth(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec, env := f.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Service is healthy", env["message"])

	data := env["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "api-gateway", data["service"])
	assert.Equal(t, "1.2.3", data["version"])
	assert.Equal(t, "test", data["environment"])
	_, err := time.Parse(time.RFC3339Nano, data["timestamp"].(string))
	assert.NoError(t, err)
}

func jsonNumber(n int64) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}
