// Package session stores per-shop platform credentials.
// The platform grants an offline access token at app install; extension
// requests only carry the shop domain, so every request resolves the
// token through this store. Uninstall webhooks delete the shop's
// sessions.
package session

import "context"

// Session is the persisted credential record for one shop.
type Session struct {
	Shop        string `json:"shop"`
	AccessToken string `json:"accessToken"`
	Scope       string `json:"scope,omitempty"`
}

// Store persists sessions keyed by shop domain.
// Get returns (nil, nil) when the shop has no session; an error means
// the store itself failed.
type Store interface {
	Get(ctx context.Context, shop string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, shop string) error
}
