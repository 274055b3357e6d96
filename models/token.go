package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session wraps the session token issued by the remote store on login.
//
// It embeds [jwt.RegisteredClaims] so the subject (user name) and expiry can
// be read without re-parsing the compact string.
type Session struct {
	jwt.RegisteredClaims

	// SignedString is the compact JWS representation sent as a bearer token.
	SignedString string `json:"-"`
}

// Expired reports whether the session expires before now plus leeway.
func (s Session) Expired(now time.Time, leeway time.Duration) bool {
	if s.ExpiresAt == nil {
		return false
	}
	return !now.Add(leeway).Before(s.ExpiresAt.Time)
}

// String returns the compact token.
func (s Session) String() string {
	return s.SignedString
}

// Credentials are the login parameters of the remote store.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
