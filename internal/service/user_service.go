package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
	"github.com/jaivikTh/nest-microsrv-kit/internal/repository"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

// UserService serves the user-service commands.
type UserService struct {
	users repository.UserStore
}

func NewUserService(users repository.UserStore) *UserService {
	return &UserService{users: users}
}

// Create adds a user without credentials; such users cannot log in.
func (s *UserService) Create(ctx context.Context, name, email string) (model.User, error) {
	email = normalizeEmail(email)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return model.User{}, apierror.Conflict("User with this email already exists")
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, internal("lookup email", err)
	}

	user, err := s.users.Insert(ctx, model.User{Name: strings.TrimSpace(name), Email: email})
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return model.User{}, apierror.Conflict("User with this email already exists")
		}
		return model.User{}, internal("insert user", err)
	}

	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, internal("list users", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return model.User{}, userError("get user", err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id int64, patch model.UserPatch) (model.User, error) {
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		patch.Email = &email

		existing, err := s.users.FindByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != id:
			return model.User{}, apierror.Conflict("Email already exists")
		case err != nil && !errors.Is(err, model.ErrUserNotFound):
			return model.User{}, internal("lookup email", err)
		}
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}

	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return model.User{}, userError("update user", err)
	}
	return user, nil
}

// Delete removes the user and, through the schema, their orders.
func (s *UserService) Delete(ctx context.Context, id int64) (int64, error) {
	n, err := s.users.Delete(ctx, id)
	if err != nil {
		return 0, internal("delete user", err)
	}
	if n == 0 {
		return 0, apierror.NotFound("User not found")
	}
	return n, nil
}

func userError(op string, err error) error {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return apierror.NotFound("User not found")
	case errors.Is(err, model.ErrEmailTaken):
		return apierror.Conflict("Email already exists")
	default:
		return internal(op, err)
	}
}

func internal(op string, err error) error {
	return apierror.Internal("Internal server error", fmt.Errorf("%s: %w", op, err))
}
