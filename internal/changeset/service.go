package changeset

import (
	"context"
	"log/slog"

	"upsell-server/internal/catalog"
	"upsell-server/internal/model"
	"upsell-server/internal/reconcile"
	"upsell-server/internal/session"
)

// OfferLookup resolves a single variant into an authoritative offer.
// Implemented by *offer.Resolver.
type OfferLookup interface {
	Lookup(ctx context.Context, creds catalog.Credentials, variantID string) (*model.Offer, error)
}

// Service orchestrates a signing request: resolve the shop's credential,
// re-derive the offer from the live catalog, reconcile against the
// client proposal, and sign.
type Service struct {
	sessions session.Store
	resolver OfferLookup
	signer   *TokenSigner
	logger   *slog.Logger
}

// NewService wires a signing service. logger may be nil.
func NewService(sessions session.Store, resolver OfferLookup, signer *TokenSigner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sessions: sessions, resolver: resolver, signer: signer, logger: logger}
}

// Sign validates and signs a proposed changeset for the given shop.
//
// Lookup failures of any kind (transport, malformed data, vanished
// variant) collapse into a not-found response: the caller can only act
// on "nothing to sign". The underlying cause is logged here so the
// distinction is not lost, it is just not the client's business.
func (s *Service) Sign(ctx context.Context, shop string, proposed []model.Change, quantity int, referenceID string) (string, error) {
	if referenceID == "" {
		return "", model.NewValidationError("referenceId", "must not be empty")
	}
	variantID := reconcile.ProposedVariantID(proposed)
	if variantID == "" {
		return "", model.NewValidationError("changes", "no add_variant change proposed")
	}

	sess, err := s.sessions.Get(ctx, shop)
	if err != nil {
		return "", model.NewInternalError(err)
	}
	if sess == nil {
		return "", model.NewUnauthorizedError("no session for shop")
	}
	creds := catalog.Credentials{Shop: shop, AccessToken: sess.AccessToken}

	offer, err := s.resolver.Lookup(ctx, creds, variantID)
	if err != nil {
		s.logger.Error("offer lookup failed during signing",
			"shop", shop,
			"variant_id", variantID,
			"error", err)
		return "", model.NewNotFoundError("offer")
	}
	if offer == nil {
		return "", model.NewNotFoundError("offer")
	}

	changes := reconcile.Changes(offer.Changes, proposed, quantity)

	token, err := s.signer.Sign(referenceID, changes)
	if err != nil {
		return "", model.NewInternalError(err)
	}

	s.logger.Info("signed changeset",
		"shop", shop,
		"variant_id", variantID,
		"reference_id", referenceID,
		"changes", len(changes))
	return token, nil
}
