// Package auth provides token issuing/verification, per-request session
// resolution and password hashing for the Conduit API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. POST /api/users or /api/users/login verifies credentials and calls
//     TokenService.Issue with the user's numeric ID.
//  2. The client sends the token back on every protected call as
//     "Authorization: Token <jwt>" (the scheme is the word Token, not Bearer).
//  3. RequireAuth / OptionalAuth resolve the header into a Session and store
//     it in the request context for handlers to read.
//
// Tokens are stateless: validity is fully determined by the HMAC signature and
// the exp claim. There is no server-side session table.
//
// JWT STRUCTURE (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:  {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":42,"exp":1700000000,"iat":1699992800,"jti":"..."}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of an issued token when none is configured.
const DefaultTokenTTL = 2 * time.Hour

// Verification failures. Callers at the HTTP boundary collapse all of them
// into a single 401; the distinction only shows up in logs and metrics.
var (
	ErrInvalidSignature = errors.New("auth: token signature is invalid")
	ErrExpired          = errors.New("auth: token expired")
	ErrMalformed        = errors.New("auth: token is malformed")
)

// Claims is the decoded identity carried by a token.
type Claims struct {
	Subject   int64     // user ID
	ExpiresAt time.Time // token is invalid at and after this instant
}

// tokenClaims is the wire payload. sub is a JSON number here (the user's
// integer ID), which is why it shadows the string Subject of
// jwt.RegisteredClaims. A pointer lets Verify tell "missing" from zero.
type tokenClaims struct {
	Sub *int64 `json:"sub"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies access tokens with a single symmetric key.
//
// The key is fixed for the lifetime of the process and comes from
// configuration (JWT_SECRET); it is never a literal in code.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. A zero ttl selects DefaultTokenTTL.
// The secret should be at least 32 bytes of random data in production:
//
//	JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl < 0 {
		return nil, errors.New("auth: token TTL must not be negative")
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime applied by Issue.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subject that expires after the configured TTL.
// The subject is not checked here; callers pass an ID they already trust.
func (s *TokenService) Issue(subject int64) (string, error) {
	return s.IssueWithTTL(subject, s.ttl)
}

// IssueWithTTL signs a token with a custom lifetime. A non-positive ttl
// produces a token that is already expired, which tests rely on.
func (s *TokenService) IssueWithTTL(subject int64, ttl time.Duration) (string, error) {
	now := s.now()
	sub := subject

	c := tokenClaims{
		Sub: &sub,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns its claims.
//
// The jwt library verifies the signature before it looks at any claim, so a
// token signed with another key reports ErrInvalidSignature even when it has
// also expired. Only HS256 is accepted, which blocks "alg: none" and
// algorithm-confusion tokens.
func (s *TokenService) Verify(raw string) (Claims, error) {
	var c tokenClaims
	token, err := jwt.ParseWithClaims(
		raw,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, fmt.Errorf("%w: %w", ErrExpired, err)
		default:
			return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}
	if !token.Valid || c.Sub == nil || c.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing sub or exp claim", ErrMalformed)
	}

	return Claims{Subject: *c.Sub, ExpiresAt: c.ExpiresAt.Time}, nil
}
