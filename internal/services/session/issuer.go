// Package session issues and verifies the signed tokens that scope a review session.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/benvon/rewrite/internal/models"
)

// MinSecretLength is the shortest accepted HMAC secret in bytes
const MinSecretLength = 32

// ErrInvalidToken is returned for tokens that fail signature, issuer, or expiry checks
var ErrInvalidToken = errors.New("invalid session token")

// Issuer signs session tokens with HS256
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. issuer is written to and checked against the iss claim.
func NewIssuer(secret, issuer string, ttl time.Duration) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue starts a new session and returns its signed token
func (i *Issuer) Issue() (*models.Session, error) {
	id := uuid.New()
	now := i.now().UTC().Truncate(time.Second)
	exp := now.Add(i.ttl)

	token, err := jwt.NewBuilder().
		Subject(id.String()).
		Issuer(i.issuer).
		IssuedAt(now).
		Expiration(exp).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, i.secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &models.Session{
		ID:        id.String(),
		Token:     string(signed),
		ExpiresAt: exp.Format(time.RFC3339),
	}, nil
}

// Verify checks a token and returns the session ID it carries
func (i *Issuer) Verify(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, i.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(i.issuer),
		jwt.WithClock(jwt.ClockFunc(i.now)),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(token.Subject())
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a session id", ErrInvalidToken)
	}
	return id, nil
}
