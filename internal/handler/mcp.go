// MCP transport handler for the upsell API using the official MCP Go SDK.
// Exposes offer resolution as MCP tools for operators and agent tooling:
// the same resolver the extension endpoints use, addressed by shop
// domain instead of a session token.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"upsell-server/internal/model"
)

// GetOfferInput is the input schema for the get_offer tool.
type GetOfferInput struct {
	Shop string `json:"shop" jsonschema:"shop domain the app is installed on,required"`
}

// LookupOfferInput is the input schema for the lookup_offer tool.
type LookupOfferInput struct {
	Shop      string `json:"shop" jsonschema:"shop domain the app is installed on,required"`
	VariantID string `json:"variant_id" jsonschema:"variant global identifier (gid://...),required"`
}

// NewMCPServer creates an MCP server with offer tools registered.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "upsell-server",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Post-purchase upsell offers. Use these tools to resolve " +
				"the offer a shop's customers would see, or to inspect a specific variant.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_offer",
		Description: "Resolve an upsell offer for a shop, exactly as the checkout extension would receive it.",
	}, h.mcpGetOffer)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_offer",
		Description: "Resolve the offer terms for one specific variant by its global identifier.",
	}, h.mcpLookupOffer)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpGetOffer(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetOfferInput,
) (*mcp.CallToolResult, *model.Offer, error) {
	if input.Shop == "" {
		return nil, nil, fmt.Errorf("shop is required")
	}

	creds, err := h.credentials(ctx, input.Shop)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	offer, err := h.resolver.Resolve(ctx, creds)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, offer, nil
}

func (h *Handler) mcpLookupOffer(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input LookupOfferInput,
) (*mcp.CallToolResult, *model.Offer, error) {
	if input.Shop == "" {
		return nil, nil, fmt.Errorf("shop is required")
	}
	if input.VariantID == "" {
		return nil, nil, fmt.Errorf("variant_id is required")
	}

	creds, err := h.credentials(ctx, input.Shop)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	offer, err := h.resolver.Lookup(ctx, creds, input.VariantID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	if offer == nil {
		return nil, nil, fmt.Errorf("NOT_FOUND: variant %s is not resolvable", input.VariantID)
	}
	return nil, offer, nil
}

// mcpError converts API errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	if apiErr, ok := err.(*model.APIError); ok {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
