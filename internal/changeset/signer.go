// Package changeset signs order changesets for the checkout platform.
// The platform will only apply changes to an in-progress order when they
// arrive as a JWT signed with the app secret, which is how server-derived
// prices survive the round trip through an untrusted client.
package changeset

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"upsell-server/internal/model"
)

// Claims is the signed changeset payload. The platform validates iss
// against the app's API key and sub against the purchase reference.
type Claims struct {
	jwt.RegisteredClaims
	Changes []model.Change `json:"changes"`
}

// TokenSigner produces signed changeset tokens. Immutable after
// construction; safe for concurrent use.
type TokenSigner struct {
	apiKey string
	secret []byte
	now    func() time.Time
}

// NewTokenSigner validates the signing material up front. A missing
// secret is a deployment mistake that must stop startup rather than
// fail per request.
func NewTokenSigner(apiKey, secret string) (*TokenSigner, error) {
	if apiKey == "" {
		return nil, errors.New("changeset signer: api key is required")
	}
	if secret == "" {
		return nil, errors.New("changeset signer: signing secret is required")
	}
	return &TokenSigner{apiKey: apiKey, secret: []byte(secret), now: time.Now}, nil
}

// Sign issues a compact HS256 token binding changes to the purchase
// reference. Every call mints a fresh token id, so identical inputs
// still produce distinct tokens.
func (s *TokenSigner) Sign(referenceID string, changes []model.Change) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   s.apiKey,
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(s.now()),
			Subject:  referenceID,
		},
		Changes: changes,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing changeset: %w", err)
	}
	return token, nil
}
