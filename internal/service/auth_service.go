package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
	"github.com/jaivikTh/nest-microsrv-kit/internal/repository"
	"github.com/jaivikTh/nest-microsrv-kit/internal/security"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

const invalidCredentials = "Invalid credentials"

// AuthService owns credentials. It runs inside the gateway and talks to the
// user store directly; password hashes never leave it.
type AuthService struct {
	users     repository.UserStore
	jwtSecret []byte
	tokenTTL  time.Duration
	cost      int
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

type AuthOption func(*AuthService)

// WithPasswordCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithPasswordCost(cost int) AuthOption {
	return func(s *AuthService) {
		s.cost = cost
	}
}

func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) {
		s.now = now
	}
}

func NewAuthService(users repository.UserStore, jwtSecret string, tokenTTL time.Duration, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		cost:      security.PasswordCost,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (model.AuthResult, error) {
	email = normalizeEmail(email)

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return model.AuthResult{}, apierror.Conflict("User with this email already exists")
	case !errors.Is(err, model.ErrUserNotFound):
		return model.AuthResult{}, apierror.Internal("Internal server error", fmt.Errorf("lookup email: %w", err))
	}

	if problems := security.ValidatePasswordStrength(password); len(problems) > 0 {
		return model.AuthResult{}, apierror.Validation(security.PasswordPolicyMessage(problems))
	}

	hash, err := security.HashPassword(password, s.cost)
	if err != nil {
		return model.AuthResult{}, apierror.Internal("Internal server error", err)
	}

	user, err := s.users.Insert(ctx, model.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return model.AuthResult{}, apierror.Conflict("User with this email already exists")
		}
		return model.AuthResult{}, apierror.Internal("Internal server error", fmt.Errorf("insert user: %w", err))
	}

	return s.issue(user)
}

// Login answers a missing account and a wrong password identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			return model.AuthResult{}, apierror.Internal("Internal server error", fmt.Errorf("lookup email: %w", err))
		}
		// keep the timing close to a real comparison
		security.ComparePassword(s.dummy(), password)
		return model.AuthResult{}, apierror.Unauthorized(invalidCredentials)
	}

	if !security.ComparePassword(user.PasswordHash, password) {
		return model.AuthResult{}, apierror.Unauthorized(invalidCredentials)
	}

	return s.issue(user)
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (model.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, apierror.NotFound("User not found")
		}
		return model.User{}, apierror.Internal("Internal server error", fmt.Errorf("get user %d: %w", userID, err))
	}
	return user, nil
}

// VerifyToken checks signature and expiry only. Whether the subject still
// exists is left to the lookups that follow.
func (s *AuthService) VerifyToken(tokenString string) (model.Principal, error) {
	claims := &model.Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return model.Principal{}, apierror.Wrap(apierror.KindUnauthorized, err, "Invalid or expired token")
	}

	if claims.UserID <= 0 {
		return model.Principal{}, apierror.Unauthorized("Invalid token subject")
	}

	return claims.Principal(), nil
}

func (s *AuthService) issue(user model.User) (model.AuthResult, error) {
	now := s.now()
	claims := model.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return model.AuthResult{}, apierror.Internal("Internal server error", fmt.Errorf("sign token: %w", err))
	}

	return model.AuthResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		User:        user.Public(),
	}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := security.HashPassword("not-a-real-password", s.cost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
