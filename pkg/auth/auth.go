// Package auth hashes client secrets with bcrypt and issues/parses the HS256
// bearer tokens that guard the REST API. It has no domain dependencies.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// BCryptCost is the work factor for client secret hashes.
const BCryptCost = 12

// DefaultTokenExpiry applies when an issuer is built with a zero expiry.
const DefaultTokenExpiry = 24 * time.Hour

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 16

// PermissionAll grants every tool permission.
const PermissionAll = "*"

var (
	ErrSecretTooShort = errors.New("jwt secret is too short")
	ErrEmptyToken     = errors.New("token is empty")
	ErrInvalidToken   = errors.New("invalid token")
)

// HashSecret hashes a client secret with bcrypt.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), BCryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret reports whether secret matches the bcrypt hash. Malformed
// hashes simply do not match.
func VerifySecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// Claims are the custom claims carried by a bearer token.
type Claims struct {
	ClientID    string   `json:"client_id"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the token grants permission.
func (c *Claims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, PermissionAll) || slices.Contains(c.Permissions, permission)
}

// Issuer signs and verifies tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, expiry time.Duration) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d characters", ErrSecretTooShort, MinSecretLength)
	}
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &Issuer{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// Expiry returns the lifetime of issued tokens.
func (i *Issuer) Expiry() time.Duration { return i.expiry }

// Generate signs a token for clientID carrying permissions.
func (i *Issuer) Generate(clientID string, permissions []string) (string, error) {
	now := i.now()
	claims := &Claims{
		ClientID:    clientID,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns its claims. Only HS256 is accepted.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrEmptyToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
