package session

import (
	"context"
	"os"
	"testing"
)

// Integration test against a real Redis. Set REDIS_TEST_ADDR to run,
// e.g. REDIS_TEST_ADDR=localhost:6379 go test ./internal/session/
func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test: REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	store, err := NewRedisStore(ctx, addr)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer store.Close()

	shop := "redis-test.example-shop.com"
	defer store.Delete(ctx, shop)

	if err := store.Save(ctx, &Session{Shop: shop, AccessToken: "shpat_it"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, shop)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.AccessToken != "shpat_it" {
		t.Errorf("Get = %+v, want saved session", got)
	}

	if err := store.Delete(ctx, shop); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err = store.Get(ctx, shop)
	if err != nil {
		t.Fatalf("Get after Delete: %v", err)
	}
	if got != nil {
		t.Errorf("Get after Delete = %+v, want nil", got)
	}
}
