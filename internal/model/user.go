package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the user shape embedded in auth responses.
type PublicUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserPatch holds the optional fields of a user update.
type UserPatch struct {
	Name  *string
	Email *string
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Claims is the JWT payload. UserID is serialized as the numeric "sub"
// claim and shadows RegisteredClaims.Subject.
type Claims struct {
	UserID int64  `json:"sub"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

func (c Claims) Principal() Principal {
	return Principal{UserID: c.UserID, Email: c.Email, Name: c.Name}
}

type AuthResult struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int64      `json:"expires_in"`
	User        PublicUser `json:"user"`
}

type TokenVerification struct {
	Valid bool      `json:"valid"`
	User  Principal `json:"user"`
}
