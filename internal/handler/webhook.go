package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"

	"upsell-server/internal/events"
	"upsell-server/internal/model"
)

// Webhook headers set by the platform on every delivery.
const (
	headerWebhookHMAC  = "X-Shopify-Hmac-Sha256"
	headerWebhookTopic = "X-Shopify-Topic"
	headerWebhookShop  = "X-Shopify-Shop-Domain"
)

// handleWebhook processes platform webhooks.
// POST /webhooks
//
// Deliveries are authenticated by an HMAC of the raw body under the app
// secret. app/uninstalled drops the shop's stored session so a stale
// token is never reused after a reinstall.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBodySize))
	if err != nil {
		h.writeError(w, model.NewValidationError("body", "unreadable payload"))
		return
	}

	if !h.validWebhookSignature(body, r.Header.Get(headerWebhookHMAC)) {
		h.logger.Warn("webhook signature rejected",
			slog.String("topic", r.Header.Get(headerWebhookTopic)),
			slog.String("shop", r.Header.Get(headerWebhookShop)))
		h.writeError(w, model.NewUnauthorizedError("invalid webhook signature"))
		return
	}

	topic := r.Header.Get(headerWebhookTopic)
	shop := r.Header.Get(headerWebhookShop)

	h.logger.InfoContext(ctx, "webhook received",
		slog.String("topic", topic),
		slog.String("shop", shop))

	switch topic {
	case "app/uninstalled":
		if err := h.sessions.Delete(ctx, shop); err != nil {
			h.writeError(w, model.NewInternalError(err))
			return
		}
		h.publish(ctx, events.NewEvent(events.AppUninstalled, shop))
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		h.writeError(w, model.NewNotFoundError("webhook topic"))
	}
}

// validWebhookSignature checks the body HMAC against the app secret.
func (h *Handler) validWebhookSignature(body []byte, header string) bool {
	if header == "" || h.webhookSecret == "" {
		return false
	}
	provided, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
