package auth

import (
	"fmt"
	"pulse-lab/domain/poll"
	"pulse-lab/errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuerName      = "pulse-lab"
	minSecretLength = 16
)

// PresenterClaims grant control of a single session.
type PresenterClaims struct {
	Session string `json:"session"`
	jwt.RegisteredClaims
}

// Issuer signs and checks presenter tokens with an HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("presenter secret must be at least %d bytes", minSecretLength)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("presenter token ttl must be positive, got %s", ttl)
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue returns the token a presenter needs to publish to or end the session.
func (i *Issuer) Issue(session poll.SessionID) (string, error) {
	now := time.Now()
	claims := &PresenterClaims{
		Session: string(session),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(session),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuerName,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify accepts a token only for the session it was issued for.
func (i *Issuer) Verify(token string, session poll.SessionID) error {
	if token == "" {
		return fmt.Errorf("%w: no token", errors.ErrUnauthorized)
	}
	parsed, err := jwt.ParseWithClaims(token, &PresenterClaims{}, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuerName))
	if err != nil {
		return fmt.Errorf("%w: %s", errors.ErrUnauthorized, err.Error())
	}
	claims, ok := parsed.Claims.(*PresenterClaims)
	if !ok || !parsed.Valid {
		return fmt.Errorf("%w: %s", errors.ErrUnauthorized, jwt.ErrSignatureInvalid)
	}
	if !strings.EqualFold(claims.Session, string(session)) {
		return fmt.Errorf("%w: token is for another session", errors.ErrUnauthorized)
	}
	return nil
}

// BearerToken strips the scheme of an Authorization header value.
func BearerToken(header string) string {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}
