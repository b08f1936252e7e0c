package model

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already taken")
	ErrOrderNotFound = errors.New("order not found")
	// ErrUnknownUser is returned when an order references a missing user.
	ErrUnknownUser = errors.New("referenced user does not exist")
)
