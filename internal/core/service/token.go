package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/autodealer/dealership-api/internal/core/domain"
)

// DefaultTokenTTL is the lifetime of issued bearer tokens.
const DefaultTokenTTL = 24 * time.Hour

// TokenConfig holds the signing key shared by issuer and verifier.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// Claims is the bearer token payload.
type Claims struct {
	SubjectID string            `json:"subjectId"`
	Type      domain.Capability `json:"type"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens for one secret.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(cfg TokenConfig) *Tokens {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{secret: cfg.Secret, ttl: ttl, now: time.Now}
}

// Issue signs a token for subjectID with the given capability.
func (t *Tokens) Issue(subjectID string, capability domain.Capability) (string, error) {
	if !capability.Valid() {
		return "", domain.ErrUnknownCapability
	}
	now := t.now()
	claims := Claims{
		SubjectID: subjectID,
		Type:      capability,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the payload.
func (t *Tokens) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	if claims.SubjectID == "" {
		return nil, errors.New("token missing subject")
	}
	return claims, nil
}
