package handler

import (
	"net/http"

	"github.com/jaivikTh/nest-microsrv-kit/internal/gateway"
	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
)

type UserHandler struct {
	dispatcher *gateway.Dispatcher
}

func NewUserHandler(dispatcher *gateway.Dispatcher) *UserHandler {
	return &UserHandler{dispatcher: dispatcher}
}

func (h *UserHandler) List(r *http.Request) (Result, error) {
	users, err := h.dispatcher.ListUsers(r.Context())
	if err != nil {
		return Result{}, err
	}
	return OK("Users retrieved successfully", users), nil
}

func (h *UserHandler) Create(r *http.Request) (Result, error) {
	var payload model.CreateUserRequest
	if err := bind(r, &payload); err != nil {
		return Result{}, err
	}

	user, err := h.dispatcher.CreateUser(r.Context(), payload)
	if err != nil {
		return Result{}, err
	}
	return Created("User created successfully", user), nil
}

func (h *UserHandler) Get(r *http.Request) (Result, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return Result{}, err
	}

	user, err := h.dispatcher.GetUser(r.Context(), id)
	if err != nil {
		return Result{}, err
	}
	return OK("User retrieved successfully", user), nil
}

func (h *UserHandler) Update(r *http.Request) (Result, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return Result{}, err
	}

	var payload model.UpdateUserRequest
	if err := bind(r, &payload); err != nil {
		return Result{}, err
	}

	user, err := h.dispatcher.UpdateUser(r.Context(), id, payload)
	if err != nil {
		return Result{}, err
	}
	return OK("User updated successfully", user), nil
}

func (h *UserHandler) Delete(r *http.Request) (Result, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return Result{}, err
	}

	res, err := h.dispatcher.DeleteUser(r.Context(), id)
	if err != nil {
		return Result{}, err
	}
	return OK("User deleted successfully", res), nil
}
