// Package catalog talks to the commerce platform's GraphQL catalog API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"upsell-server/internal/model"
	"upsell-server/internal/transport"
)

// defaultAPIVersion pins the Admin API version the queries were written
// against. Bump deliberately; field shapes change between versions.
const defaultAPIVersion = "2024-01"

// userAgent identifies this client to upstream servers.
// The platform CDN rate-limits requests without a User-Agent.
const userAgent = "Upsell-Server/1.0"

// variantFields is the selection set shared by both queries. Product
// variants are fetched with enough product context to build an offer in
// one round trip: image, description, and sibling variants for size
// options.
const variantFields = `
  id
  title
  price
  product {
    title
    description
    featuredImage { url }
    variants(first: 100) {
      edges {
        node {
          id
          selectedOptions { name value }
        }
      }
    }
  }`

const pageQuery = `query VariantPage($first: Int!) {
  productVariants(first: $first) {
    edges { node {` + variantFields + ` } }
  }
}`

const lookupQuery = `query VariantByID($id: ID!) {
  productVariant(id: $id) {` + variantFields + ` }
}`

// Credentials identify the shop a request acts on behalf of.
// Resolved per request from the session store; the client itself is
// tenant-agnostic.
type Credentials struct {
	Shop        string // shop domain, e.g. "example.myshopify.com"
	AccessToken string // bearer credential for the catalog API
}

// Config holds catalog client configuration.
type Config struct {
	// APIVersion overrides the pinned API version. Optional.
	APIVersion string

	// BaseURL overrides the https://{shop} base. Used by tests to point
	// the client at a local server; leave empty in production.
	BaseURL string

	// Timeout for catalog round trips. Defaults to 30s.
	Timeout time.Duration
}

// Client executes catalog queries against the platform GraphQL endpoint.
// Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	apiVersion string
	baseURL    string
}

// New creates a catalog client.
func New(cfg Config) *Client {
	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.BaseURL == "" {
		// Chrome TLS fingerprint transport to avoid JA3-based rate
		// limiting. See internal/transport for rationale.
		httpClient.Transport = transport.NewChromeTransport(timeout)
	}

	return &Client{
		httpClient: httpClient,
		apiVersion: version,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

// VariantPage fetches the first `first` variants from the catalog.
// Returns snapshots in catalog order; an empty catalog yields an empty
// slice, not an error.
func (c *Client) VariantPage(ctx context.Context, creds Credentials, first int) ([]model.CatalogVariant, error) {
	body, err := c.post(ctx, creds, graphQLRequest{
		Query:     pageQuery,
		Variables: map[string]any{"first": first},
	})
	if err != nil {
		return nil, err
	}

	var resp pageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, model.NewUpstreamError("catalog", fmt.Errorf("parsing response: %w", err))
	}
	if len(resp.Errors) > 0 {
		return nil, graphQLErrorToAPIError(resp.Errors)
	}

	variants := make([]model.CatalogVariant, 0, len(resp.Data.ProductVariants.Edges))
	for _, edge := range resp.Data.ProductVariants.Edges {
		variants = append(variants, snapshotFromNode(edge.Node))
	}
	return variants, nil
}

// VariantByID fetches a single variant by its global identifier.
// Returns (nil, nil) when the identifier resolves to nothing, so callers
// can distinguish "offer no longer exists" from transport failure.
func (c *Client) VariantByID(ctx context.Context, creds Credentials, variantID string) (*model.CatalogVariant, error) {
	body, err := c.post(ctx, creds, graphQLRequest{
		Query:     lookupQuery,
		Variables: map[string]any{"id": variantID},
	})
	if err != nil {
		return nil, err
	}

	var resp lookupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, model.NewUpstreamError("catalog", fmt.Errorf("parsing response: %w", err))
	}
	if len(resp.Errors) > 0 {
		return nil, graphQLErrorToAPIError(resp.Errors)
	}
	if resp.Data.ProductVariant == nil {
		return nil, nil
	}

	snapshot := snapshotFromNode(*resp.Data.ProductVariant)
	return &snapshot, nil
}

// post executes a GraphQL request and returns the raw response body.
func (c *Client) post(ctx context.Context, creds Credentials, gql graphQLRequest) ([]byte, error) {
	jsonBody, err := json.Marshal(gql)
	if err != nil {
		return nil, fmt.Errorf("marshaling query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint(creds.Shop), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewUpstreamError("catalog", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, statusToAPIError(resp.StatusCode, body)
	}

	return body, nil
}

// endpoint builds the GraphQL URL for a shop.
func (c *Client) endpoint(shop string) string {
	base := c.baseURL
	if base == "" {
		base = "https://" + shop
	}
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", base, c.apiVersion)
}

// statusToAPIError converts a non-2xx catalog response to an APIError.
func statusToAPIError(statusCode int, body []byte) error {
	switch statusCode {
	case 401, 403:
		return model.NewUnauthorizedError("catalog authentication failed")
	default:
		return model.NewUpstreamError("catalog",
			fmt.Errorf("status %d: %s", statusCode, truncate(body, 200)))
	}
}

// graphQLErrorToAPIError converts the GraphQL errors array to an APIError.
// A 200 response with errors still means the query failed.
func graphQLErrorToAPIError(errs []graphQLError) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return model.NewUpstreamError("catalog",
		fmt.Errorf("graphql: %s", strings.Join(msgs, "; ")))
}

// truncate keeps error messages bounded when upstream returns HTML pages.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
