package handler

import (
	"context"
	"log/slog"
	"net/http"

	"upsell-server/internal/catalog"
	"upsell-server/internal/events"
	"upsell-server/internal/middleware"
	"upsell-server/internal/model"
)

// offerResponse wraps the offer the way the extension expects it.
type offerResponse struct {
	Offer *model.Offer `json:"offer"`
}

// handleOffer resolves an upsell offer for the authenticated shop.
// POST /api/offer
//
// The extension calls this before the post-purchase page renders; the
// request body carries the purchase reference but the offer does not
// depend on it.
func (h *Handler) handleOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := middleware.ClaimsFromContext(ctx)
	if claims == nil {
		h.writeError(w, model.NewUnauthorizedError("session required"))
		return
	}

	creds, err := h.credentials(ctx, claims.Shop)
	if err != nil {
		h.writeError(w, err)
		return
	}

	offer, err := h.resolver.Resolve(ctx, creds)
	if err != nil {
		h.logger.ErrorContext(ctx, "offer resolution failed",
			slog.String("shop", claims.Shop),
			slog.String("error", err.Error()))
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "offer resolved",
		slog.String("shop", claims.Shop),
		slog.Int64("offer_id", offer.ID))

	event := events.NewEvent(events.OfferResolved, claims.Shop)
	event.OfferID = offer.ID
	h.publish(ctx, event)

	h.writeJSON(w, http.StatusOK, offerResponse{Offer: offer})
}

// credentials resolves the shop's stored access token into catalog
// credentials. A missing session means the app is not installed for
// this shop anymore.
func (h *Handler) credentials(ctx context.Context, shop string) (catalog.Credentials, error) {
	sess, err := h.sessions.Get(ctx, shop)
	if err != nil {
		return catalog.Credentials{}, model.NewInternalError(err)
	}
	if sess == nil {
		return catalog.Credentials{}, model.NewUnauthorizedError("no session for shop")
	}
	return catalog.Credentials{Shop: shop, AccessToken: sess.AccessToken}, nil
}
