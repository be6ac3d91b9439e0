// Package model defines the domain types shared across the upsell backend.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// The upsell discount is fixed for this app: every offer is presented at
// 15% off the catalog price. The client never supplies discount terms;
// they are always derived server-side (see internal/reconcile).
const (
	DiscountPercent = 15
	DiscountTitle   = "15% off"
)

// ChangeType discriminates the kinds of order modifications a changeset
// can carry.
type ChangeType string

const (
	ChangeAddVariant      ChangeType = "add_variant"
	ChangeAddShippingLine ChangeType = "add_shipping_line"
)

// DiscountValueType per the platform changeset schema.
type DiscountValueType string

const (
	DiscountPercentage  DiscountValueType = "percentage"
	DiscountFixedAmount DiscountValueType = "fixed_amount"
)

// Discount describes a price reduction attached to an add_variant change.
type Discount struct {
	Value     int               `json:"value"`
	ValueType DiscountValueType `json:"valueType"`
	Title     string            `json:"title"`
}

// StandardDiscount returns the fixed 15% offer discount.
func StandardDiscount() *Discount {
	return &Discount{
		Value:     DiscountPercent,
		ValueType: DiscountPercentage,
		Title:     DiscountTitle,
	}
}

// Change is a single modification to an in-progress order. It is a tagged
// union over Type: add_variant uses VariantID/Quantity/Discount,
// add_shipping_line uses Price/Title. The flat shape with omitempty fields
// matches the platform's changeset JSON.
//
// Size is a UI-only field the extension attaches to proposed changes; it
// is stripped before signing and never appears in a signed changeset.
type Change struct {
	Type ChangeType `json:"type"`

	// add_variant fields
	VariantID string    `json:"variantID,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Discount  *Discount `json:"discount,omitempty"`

	// add_shipping_line fields
	Price string `json:"price,omitempty"`
	Title string `json:"title,omitempty"`

	// Client-only, never signed
	Size string `json:"size,omitempty"`
}

// NewAddVariantChange builds an add_variant change with the standard discount.
func NewAddVariantChange(variantID string, quantity int) Change {
	return Change{
		Type:      ChangeAddVariant,
		VariantID: variantID,
		Quantity:  quantity,
		Discount:  StandardDiscount(),
	}
}

// NewShippingLineChange builds an add_shipping_line change.
// Price is a major-unit decimal string (e.g., "10.00").
func NewShippingLineChange(price, title string) Change {
	return Change{
		Type:  ChangeAddShippingLine,
		Price: price,
		Title: title,
	}
}

// SizeOption pairs a size label with the variant that carries it.
type SizeOption struct {
	Size      string `json:"size"`
	VariantID string `json:"variantID"`
}

// Offer is the normalized upsell offer returned to the extension.
// Constructed fresh per request from live catalog data, never persisted.
// Invariant: Changes is non-empty and Changes[0] is an add_variant change
// referencing the chosen variant.
type Offer struct {
	ID                 int64        `json:"id"`
	Title              string       `json:"title"`
	ProductTitle       string       `json:"productTitle"`
	ProductImageURL    string       `json:"productImageURL"`
	ProductDescription string       `json:"productDescription"`
	OriginalPrice      string       `json:"originalPrice"`
	DiscountedPrice    string       `json:"discountedPrice"`
	SizeOptions        []SizeOption `json:"sizeOptions"`
	Changes            []Change     `json:"changes"`
}

// === Catalog Snapshot ===
// Read-only records fetched from the platform catalog API. Not owned by
// this service; treated as an immutable snapshot per request.

// CatalogVariant is a product variant as returned by the catalog API.
type CatalogVariant struct {
	ID      string // global identifier, gid://.../ProductVariant/{n}
	Title   string
	Price   string // major-unit decimal string, e.g. "33.00"
	Product CatalogProduct
}

// CatalogProduct holds the product-level fields of a variant snapshot.
// Variants preserves catalog order.
type CatalogProduct struct {
	Title       string
	Description string
	ImageURL    string
	Variants    []VariantRef
}

// VariantRef references a sibling variant and its "Size" selected option.
// Size is empty when the variant carries no Size option.
type VariantRef struct {
	ID   string
	Size string
}

// === Global Identifier Helpers ===

// GIDTail returns the trailing path segment of a global identifier.
// "gid://shopify/ProductVariant/46911531614440" → "46911531614440".
func GIDTail(gid string) string {
	if i := strings.LastIndex(gid, "/"); i >= 0 {
		return gid[i+1:]
	}
	return gid
}

// NumericGIDTail parses the trailing path segment of a global identifier
// as an integer. Returns ErrMalformedIdentifier when the segment is not
// numeric.
func NumericGIDTail(gid string) (int64, error) {
	tail := GIDTail(gid)
	n, err := strconv.ParseInt(tail, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedIdentifier, gid)
	}
	return n, nil
}
