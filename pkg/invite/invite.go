// Package invite issues and verifies doctor invite tokens. A token is an
// HS256 JWT bound to the invited email address.
package invite

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer   = "clinic-booking"
	audience = "doctor-registration"
)

var (
	ErrInvalidToken  = errors.New("invalid invite token")
	ErrEmailMismatch = errors.New("invite token issued for a different email")
	ErrSecretTooWeak = errors.New("invite secret must be at least 32 bytes")
)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) (*Signer, error) {
	if len(secret) < 32 {
		return nil, ErrSecretTooWeak
	}
	return &Signer{secret: []byte(secret), now: time.Now}, nil
}

// Issue returns a token valid for ttl that only registers email.
func (s *Signer) Issue(email string, ttl time.Duration) (string, error) {
	email = normalize(email)
	if email == "" {
		return "", errors.New("email is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}

	now := s.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign invite: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and that the token was issued for email.
func (s *Signer) Verify(token, email string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Email != normalize(email) {
		return nil, ErrEmailMismatch
	}
	return claims, nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
