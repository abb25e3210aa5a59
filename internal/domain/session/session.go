package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role represents the role bound to a session.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Common errors
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
	ErrMissingUserID = errors.New("missing user_id in claims")
)

// Session is the authenticated identity bound to the current client context.
// At most one session is active at a time; its absence means "anonymous".
type Session struct {
	UserID   int64     `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Token    string    `json:"token"`
	Role     Role      `json:"role"`
	Blocked  bool      `json:"blocked"`
	IssuedAt time.Time `json:"issued_at"`
}

// IsAdmin reports whether the session carries the admin role.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// Claims are the bearer-token claims issued by the backend.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// DecodeToken extracts the identity claims from a bearer token without
// verifying its signature. Signature verification is the server's job; the
// client only needs the identity/role/expiry the token carries. An expired
// token is rejected so a stale session is not restored past its lifetime.
func DecodeToken(token string) (*Claims, error) {
	parser := jwt.NewParser()
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return nil, ErrMissingUserID
	}
	if claims.Role == "" {
		claims.Role = RoleUser
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, ErrExpiredToken
	}
	return claims, nil
}

// FromToken builds a Session from a bearer token's claims.
func FromToken(token string) (*Session, error) {
	claims, err := DecodeToken(token)
	if err != nil {
		return nil, err
	}
	s := &Session{
		UserID: claims.UserID,
		Name:   claims.Name,
		Email:  claims.Email,
		Token:  token,
		Role:   claims.Role,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	return s, nil
}
