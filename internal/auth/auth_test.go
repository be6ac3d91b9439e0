package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testAPIKey = "test-api-key"
	testSecret = "test-app-secret"
	testShop   = "demo.myshopify.com"
)

type testTokenOpts struct {
	audience string
	secret   string
	shop     string
	expires  time.Time
	method   jwt.SigningMethod
}

func mintToken(t *testing.T, opts testTokenOpts) string {
	t.Helper()
	if opts.audience == "" {
		opts.audience = testAPIKey
	}
	if opts.secret == "" {
		opts.secret = testSecret
	}
	if opts.shop == "" {
		opts.shop = testShop
	}
	if opts.expires.IsZero() {
		opts.expires = time.Now().Add(time.Minute)
	}
	if opts.method == nil {
		opts.method = jwt.SigningMethodHS256
	}

	claims := jwt.MapClaims{
		"aud": opts.audience,
		"dest": "https://" + opts.shop,
		"exp": opts.expires.Unix(),
		"nbf": time.Now().Add(-time.Minute).Unix(),
		"input_data": map[string]any{
			"shop": map[string]any{"domain": opts.shop},
		},
	}
	token, err := jwt.NewWithClaims(opts.method, claims).SignedString([]byte(opts.secret))
	if err != nil {
		t.Fatalf("minting test token: %v", err)
	}
	return token
}

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(testAPIKey, testSecret)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func TestVerify(t *testing.T) {
	claims, err := newTestVerifier(t).Verify(mintToken(t, testTokenOpts{}))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Shop != testShop {
		t.Errorf("Shop = %q, want %q", claims.Shop, testShop)
	}
	if claims.Destination != "https://"+testShop {
		t.Errorf("Destination = %q", claims.Destination)
	}
}

func TestVerifyRejects(t *testing.T) {
	tests := []struct {
		name string
		opts testTokenOpts
	}{
		{"wrong secret", testTokenOpts{secret: "some-other-secret"}},
		{"wrong audience", testTokenOpts{audience: "some-other-app"}},
		{"expired", testTokenOpts{expires: time.Now().Add(-time.Hour)}},
	}

	verifier := newTestVerifier(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := verifier.Verify(mintToken(t, tt.opts)); err == nil {
				t.Error("Verify accepted the token, want error")
			}
		})
	}
}

func TestVerifyRejectsMissingShop(t *testing.T) {
	claims := jwt.MapClaims{
		"aud": testAPIKey,
		"exp": time.Now().Add(time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("minting test token: %v", err)
	}

	if _, err := newTestVerifier(t).Verify(token); err == nil {
		t.Error("token without shop domain accepted")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := newTestVerifier(t).Verify("not-a-token"); err == nil {
		t.Error("garbage input accepted")
	}
}

func TestNewVerifierRequiresMaterial(t *testing.T) {
	if _, err := NewVerifier("", testSecret); err == nil {
		t.Error("empty api key accepted")
	}
	if _, err := NewVerifier(testAPIKey, ""); err == nil {
		t.Error("empty secret accepted")
	}
}
