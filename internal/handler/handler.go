// Package handler provides HTTP handlers for the upsell API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"upsell-server/internal/catalog"
	"upsell-server/internal/events"
	"upsell-server/internal/model"
	"upsell-server/internal/session"
)

// OfferResolver resolves offers from the live catalog.
// Implemented by *offer.Resolver.
type OfferResolver interface {
	Resolve(ctx context.Context, creds catalog.Credentials) (*model.Offer, error)
	Lookup(ctx context.Context, creds catalog.Credentials, variantID string) (*model.Offer, error)
}

// ChangesetSigner signs a proposed changeset for a shop.
// Implemented by *changeset.Service.
type ChangesetSigner interface {
	Sign(ctx context.Context, shop string, proposed []model.Change, quantity int, referenceID string) (string, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	resolver      OfferResolver
	signer        ChangesetSigner
	sessions      session.Store
	publisher     events.Publisher
	webhookSecret string
	logger        *slog.Logger
}

// New creates a Handler. publisher may be nil to disable event emission.
func New(resolver OfferResolver, signer ChangesetSigner, sessions session.Store, publisher events.Publisher, webhookSecret string, logger *slog.Logger) *Handler {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Handler{
		resolver:      resolver,
		signer:        signer,
		sessions:      sessions,
		publisher:     publisher,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns. requireSession guards the
// extension-facing endpoints; webhooks authenticate via HMAC instead.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, requireSession func(http.Handler) http.Handler) {
	// Extension API - session-token authenticated
	mux.Handle("POST /api/offer", requireSession(http.HandlerFunc(h.handleOffer)))
	mux.Handle("POST /api/sign-changeset", requireSession(http.HandlerFunc(h.handleSignChangeset)))

	// Platform webhooks - HMAC authenticated
	mux.HandleFunc("POST /webhooks", h.handleWebhook)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleHealth reports liveness. No dependencies are probed: the
// service is stateless and its upstreams are per-request.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		// Wrap unexpected errors
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	// Limit request body size to prevent DoS
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// publish emits an event without letting broker trouble touch the
// request outcome.
func (h *Handler) publish(ctx context.Context, event events.Event) {
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn("event publish failed",
			slog.String("event", event.Name),
			slog.String("shop", event.Shop),
			slog.String("error", err.Error()))
	}
}
