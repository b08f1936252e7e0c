package handler

import (
	"net/http"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
	"github.com/jaivikTh/nest-microsrv-kit/internal/service"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(r *http.Request) (Result, error) {
	var payload model.RegisterRequest
	if err := bind(r, &payload); err != nil {
		return Result{}, err
	}

	res, err := h.service.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		return Result{}, err
	}

	return Created("User registered successfully", res), nil
}

func (h *AuthHandler) Login(r *http.Request) (Result, error) {
	var payload model.LoginRequest
	if err := bind(r, &payload); err != nil {
		return Result{}, err
	}

	res, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		return Result{}, err
	}

	return OK("User logged in successfully", res), nil
}

func (h *AuthHandler) Profile(r *http.Request) (Result, error) {
	principal, err := principalFrom(r)
	if err != nil {
		return Result{}, err
	}

	user, err := h.service.Profile(r.Context(), principal.UserID)
	if err != nil {
		return Result{}, err
	}

	return OK("Profile retrieved successfully", user), nil
}

// Verify reports the principal of an already verified token.
func (h *AuthHandler) Verify(r *http.Request) (Result, error) {
	principal, err := principalFrom(r)
	if err != nil {
		return Result{}, err
	}

	return OK("Token is valid", model.TokenVerification{Valid: true, User: principal}), nil
}
