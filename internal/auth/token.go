// Package auth issues and verifies the bearer tokens that identify a
// principal to the HTTP API and the notification WebSocket.
//
// Tokens are HS256 JWTs whose subject is the principal's integer ID. The
// engine never sees a token; it only receives the verified domain.Principal.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/roach88/collabevents/internal/domain"
)

// DefaultIssuer is the iss claim used when none is configured.
const DefaultIssuer = "collabevents"

var (
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken is returned for malformed, expired or forged tokens.
	ErrInvalidToken = errors.New("invalid bearer token")
)

type principalClaims struct {
	jwt.RegisteredClaims
}

// Tokens signs and verifies principal tokens with a shared secret.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token service. A zero ttl issues tokens that never
// expire.
func NewTokens(secret []byte, issuer string, ttl time.Duration) (*Tokens, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &Tokens{secret: secret, issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of t that reads time from now.
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	c := *t
	c.now = now
	return &c
}

// Issue returns a signed token for the principal.
func (t *Tokens) Issue(p domain.Principal) (string, error) {
	if p.ID <= 0 {
		return "", fmt.Errorf("issue token: principal id must be positive, got %d", p.ID)
	}

	now := t.now().UTC()
	claims := principalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   t.issuer,
			Subject:  strconv.FormatInt(p.ID, 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Verify checks a token and returns the principal it names.
func (t *Tokens) Verify(token string) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, ErrMissingToken
	}

	var parsed principalClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || id <= 0 {
		return domain.Principal{}, fmt.Errorf("%w: subject %q is not a principal id", ErrInvalidToken, parsed.Subject)
	}
	return domain.Principal{ID: id}, nil
}

// FromRequest verifies the token in the Authorization header. Browsers
// cannot set headers on a WebSocket handshake, so a token query parameter
// is accepted as a fallback.
func (t *Tokens) FromRequest(r *http.Request) (domain.Principal, error) {
	return t.Verify(tokenFromRequest(r))
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return token
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
