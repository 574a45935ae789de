package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"decision-eval/backend/internal/limits"
)

// ErrInvalidKey is returned when an API key fails verification.
var ErrInvalidKey = errors.New("invalid API key")

// Identity is the customer extracted from a verified API key.
type Identity struct {
	CustomerID string
	Tier       limits.Tier
	Email      string
}

// Keys mints and verifies signed API keys.
type Keys struct {
	secret []byte
}

// NewKeys builds a key service from the shared signing secret.
func NewKeys(secret string) (*Keys, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("signing secret is empty")
	}
	return &Keys{secret: []byte(secret)}, nil
}

// Mint issues a signed API key for a customer. Keys are valid for one year.
func (k *Keys) Mint(customerID string, tier limits.Tier, email string) (string, error) {
	if strings.TrimSpace(customerID) == "" {
		return "", errors.New("customer id is empty")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  customerID,
		"tier": string(tier),
		"iat":  now.Unix(),
		"exp":  now.AddDate(1, 0, 0).Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("sign key: %w", err)
	}
	return signed, nil
}

// Verify validates an API key and returns the embedded identity.
func (k *Keys) Verify(key string) (*Identity, error) {
	parsed, err := jwt.Parse(key, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return k.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidKey
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidKey
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidKey
	}
	tier, _ := claims["tier"].(string)
	email, _ := claims["email"].(string)
	return &Identity{
		CustomerID: sub,
		Tier:       limits.ParseTier(tier),
		Email:      email,
	}, nil
}
