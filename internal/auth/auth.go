// Package auth verifies the session tokens the checkout extension sends
// with each API request. The platform signs these tokens with the app's
// shared secret and addresses them to the app's API key; a valid token
// tells us which shop the request belongs to without any cookie state.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is what a verified token asserts about the request.
type SessionClaims struct {
	Shop        string // shop domain, e.g. demo.myshopify.com
	Destination string // dest claim, the shop's admin URL
}

// wireClaims is the raw token payload. The shop domain rides inside the
// platform's input_data envelope.
type wireClaims struct {
	jwt.RegisteredClaims
	Destination string `json:"dest"`
	InputData   struct {
		Shop struct {
			Domain string `json:"domain"`
		} `json:"shop"`
	} `json:"input_data"`
}

// Verifier checks session tokens. Immutable after construction; safe
// for concurrent use.
type Verifier struct {
	parser *jwt.Parser
	secret []byte
}

// NewVerifier builds a verifier for tokens addressed to apiKey and
// signed with secret. Missing material is a startup error.
func NewVerifier(apiKey, secret string) (*Verifier, error) {
	if apiKey == "" {
		return nil, errors.New("session verifier: api key is required")
	}
	if secret == "" {
		return nil, errors.New("session verifier: app secret is required")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience(apiKey),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(10*time.Second),
	)
	return &Verifier{parser: parser, secret: []byte(secret)}, nil
}

// Verify validates the token's signature, audience, and lifetime, and
// extracts the shop it was issued for.
func (v *Verifier) Verify(tokenString string) (*SessionClaims, error) {
	claims := &wireClaims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("verifying session token: %w", err)
	}

	shop := claims.InputData.Shop.Domain
	if shop == "" {
		return nil, errors.New("session token carries no shop domain")
	}
	return &SessionClaims{Shop: shop, Destination: claims.Destination}, nil
}
