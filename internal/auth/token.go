// Package auth implements bearer-token identity for the gateway.
//
// Tokens are HS256 JWTs signed with a server-held secret. A verified token
// yields a Principal that lives only for the duration of one request; there is
// no session store and no refresh flow — clients log in again when the token
// expires.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification:
// bad signature, malformed payload, or expired.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Principal is the authenticated caller as carried in token claims.
// Subject is the user id issued by the login procedure.
type Principal struct {
	Subject  string
	Username string
	Email    string
	Name     string
	Role     string
}

// Claims is the JWT payload minted at login.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenProvider mints and verifies access tokens.
type TokenProvider struct {
	secret  []byte
	expires time.Duration
	now     func() time.Time
}

// NewTokenProvider returns a provider signing with secret; tokens expire
// after ttl.
func NewTokenProvider(secret string, ttl time.Duration) *TokenProvider {
	return &TokenProvider{secret: []byte(secret), expires: ttl, now: time.Now}
}

// Mint signs an access token for p.
func (t *TokenProvider) Mint(p Principal) (string, error) {
	now := t.now()
	claims := Claims{
		Username: p.Username,
		Email:    p.Email,
		Name:     p.Name,
		Role:     p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expires)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses and validates raw, returning the embedded Principal.
// Any failure (signature, expiry, malformed input, wrong algorithm) maps to
// ErrInvalidToken; callers do not distinguish further.
func (t *TokenProvider) Verify(raw string) (Principal, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return Principal{}, ErrInvalidToken
	}
	return Principal{
		Subject:  claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     claims.Role,
	}, nil
}
