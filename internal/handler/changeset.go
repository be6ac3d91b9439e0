package handler

import (
	"log/slog"
	"net/http"

	"upsell-server/internal/events"
	"upsell-server/internal/middleware"
	"upsell-server/internal/model"
)

// signChangesetRequest is the acceptance payload from the extension.
// Quantity is optional; the proposed add_variant quantity applies when
// it is absent.
type signChangesetRequest struct {
	Changes     []model.Change `json:"changes"`
	Quantity    int            `json:"quantity,omitempty"`
	ReferenceID string         `json:"referenceId"`
}

// signChangesetResponse carries the token the extension hands to the
// platform's applyChangeset function.
type signChangesetResponse struct {
	Token string `json:"token"`
}

// handleSignChangeset signs an accepted offer for application to the
// in-progress order.
// POST /api/sign-changeset
func (h *Handler) handleSignChangeset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := middleware.ClaimsFromContext(ctx)
	if claims == nil {
		h.writeError(w, model.NewUnauthorizedError("session required"))
		return
	}

	var req signChangesetRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	token, err := h.signer.Sign(ctx, claims.Shop, req.Changes, req.Quantity, req.ReferenceID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "changeset signed",
		slog.String("shop", claims.Shop),
		slog.String("reference_id", req.ReferenceID))

	event := events.NewEvent(events.ChangesetSigned, claims.Shop)
	event.Changes = req.Changes
	h.publish(ctx, event)

	h.writeJSON(w, http.StatusOK, signChangesetResponse{Token: token})
}
