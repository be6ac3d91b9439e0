package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"upsell-server/internal/auth"
)

const (
	testAPIKey = "test-api-key"
	testSecret = "test-app-secret"
	testShop   = "demo.myshopify.com"
)

func mintSessionToken(t *testing.T, secret string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"aud": testAPIKey,
		"exp": time.Now().Add(time.Minute).Unix(),
		"input_data": map[string]any{
			"shop": map[string]any{"domain": testShop},
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("minting test token: %v", err)
	}
	return token
}

func newAuthHandler(t *testing.T, next http.Handler) http.Handler {
	t.Helper()
	verifier, err := auth.NewVerifier(testAPIKey, testSecret)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Auth(verifier, logger)(next)
}

func TestAuthAttachesClaims(t *testing.T) {
	var gotShop string
	handler := newAuthHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := ClaimsFromContext(r.Context()); claims != nil {
			gotShop = claims.Shop
		}
	}))

	req := httptest.NewRequest("POST", "/api/offer", nil)
	req.Header.Set("Authorization", "Bearer "+mintSessionToken(t, testSecret))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotShop != testShop {
		t.Errorf("shop from context = %q, want %q", gotShop, testShop)
	}
}

func TestAuthRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"bad signature", "Bearer " + "x.y.z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newAuthHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("unauthenticated request reached the handler")
			}))

			req := httptest.NewRequest("POST", "/api/offer", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if !strings.Contains(w.Body.String(), "UNAUTHORIZED") {
				t.Errorf("Body = %s, want UNAUTHORIZED error", w.Body.String())
			}
		})
	}
}

func TestAuthRejectsForeignSignature(t *testing.T) {
	handler := newAuthHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request with foreign signature reached the handler")
	}))

	req := httptest.NewRequest("POST", "/api/offer", nil)
	req.Header.Set("Authorization", "Bearer "+mintSessionToken(t, "wrong-secret"))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestClaimsFromContextMissing(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	if claims := ClaimsFromContext(req.Context()); claims != nil {
		t.Errorf("claims = %+v, want nil without Auth", claims)
	}
}
