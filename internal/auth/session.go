package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Scheme is the literal that must precede the token in the Authorization
// header. Conduit clients send "Token", not the more common "Bearer".
const Scheme = "Token"

// Session resolution failures. Every one of them becomes the same generic
// 401 at the HTTP boundary.
var (
	ErrMissingHeader   = errors.New("auth: authorization header is missing")
	ErrMalformedHeader = errors.New("auth: authorization header is malformed")
	ErrInvalidToken    = errors.New("auth: invalid token")
)

// Session is the authenticated identity of one request. It is built by
// ResolveSession and lives only as long as the request context.
type Session struct {
	UserID int64
	Token  string // raw token, echoed back by GET /api/user
}

// ResolveSession extracts the token from the Authorization header and
// verifies it. It performs no I/O.
//
// Errors:
//   - ErrMissingHeader   if the header is absent or blank
//   - ErrMalformedHeader if the value is not "Token <value>"
//   - ErrInvalidToken    (wrapping the codec error) if verification fails
func ResolveSession(h http.Header, tokens *TokenService) (Session, error) {
	value := strings.TrimSpace(h.Get("Authorization"))
	if value == "" {
		return Session{}, ErrMissingHeader
	}

	raw, err := parseAuthorization(value)
	if err != nil {
		return Session{}, err
	}

	claims, err := tokens.Verify(raw)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return Session{UserID: claims.Subject, Token: raw}, nil
}

// parseAuthorization splits "Token <value>" into its parts. The scheme is
// matched exactly; anything else, including a bare "Token" with nothing after
// it, is ErrMalformedHeader.
func parseAuthorization(value string) (string, error) {
	scheme, rest, found := strings.Cut(value, " ")
	if !found {
		return "", ErrMalformedHeader
	}
	if scheme != Scheme {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrMalformedHeader, scheme)
	}
	raw := strings.TrimSpace(rest)
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", ErrMalformedHeader
	}
	return raw, nil
}

// failureReason names err for logs and the auth failure metric.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingHeader):
		return "missing_header"
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed_token"
	}
}
