// Package offer resolves upsell offers from live catalog data.
package offer

import (
	"context"

	"upsell-server/internal/catalog"
	"upsell-server/internal/model"
)

// pageSize bounds the discovery query. One page is plenty for a
// pick-one-offer policy.
const pageSize = 10

// descriptionPlaceholder fills in for products without a description so
// the extension always has something to render.
const descriptionPlaceholder = "No description available."

// DataSource fetches variant snapshots for a shop. Implemented by
// *catalog.Client in production and by fixtures in tests.
type DataSource interface {
	VariantPage(ctx context.Context, creds catalog.Credentials, first int) ([]model.CatalogVariant, error)
	VariantByID(ctx context.Context, creds catalog.Credentials, variantID string) (*model.CatalogVariant, error)
}

// Config holds resolver configuration.
type Config struct {
	Source   DataSource
	Strategy Strategy // defaults to RandomStrategy

	// ShippingPrice is the flat shipping line added to discovery offers,
	// as a major-unit decimal string. Defaults to "10.00".
	ShippingPrice string
	ShippingTitle string
}

// Resolver builds Offers from catalog snapshots. Stateless; safe for
// concurrent use.
type Resolver struct {
	source        DataSource
	strategy      Strategy
	shippingPrice string
	shippingTitle string
}

// NewResolver creates a resolver with the given data source.
func NewResolver(cfg Config) *Resolver {
	strategy := cfg.Strategy
	if strategy == nil {
		strategy = RandomStrategy{}
	}
	price := cfg.ShippingPrice
	if price == "" {
		price = "10.00"
	}
	title := cfg.ShippingTitle
	if title == "" {
		title = "Standard Shipping"
	}

	return &Resolver{
		source:        cfg.Source,
		strategy:      strategy,
		shippingPrice: price,
		shippingTitle: title,
	}
}

// Resolve picks one variant from the catalog and normalizes it into an
// Offer (discovery mode). Fails with CatalogEmpty when the shop has no
// variants; transport failures propagate as hard errors so the extension
// renders nothing rather than a broken offer.
//
// Discovery offers carry a flat shipping line after the add_variant
// change; lookup offers do not. The asymmetry matches the two call
// sites: discovery prices a complete upsell, lookup only re-derives the
// variant terms for signing.
func (r *Resolver) Resolve(ctx context.Context, creds catalog.Credentials) (*model.Offer, error) {
	variants, err := r.source.VariantPage(ctx, creds, pageSize)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, model.NewCatalogEmptyError()
	}

	chosen := variants[r.strategy.Pick(len(variants))]
	return r.buildOffer(chosen, true)
}

// Lookup resolves a specific variant by its global identifier.
// Returns (nil, nil) when the variant no longer exists, a normal
// outcome distinct from transport failure. Error detail is preserved at
// this boundary; the signing service decides how much of it to surface.
func (r *Resolver) Lookup(ctx context.Context, creds catalog.Credentials, variantID string) (*model.Offer, error) {
	variant, err := r.source.VariantByID(ctx, creds, variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, nil
	}
	return r.buildOffer(*variant, false)
}

// buildOffer normalizes a catalog snapshot into an Offer.
func (r *Resolver) buildOffer(v model.CatalogVariant, withShipping bool) (*model.Offer, error) {
	id, err := model.NumericGIDTail(v.ID)
	if err != nil {
		return nil, model.NewMalformedIdentifierError(v.ID)
	}

	description := v.Product.Description
	if description == "" {
		description = descriptionPlaceholder
	}

	changes := []model.Change{model.NewAddVariantChange(v.ID, 1)}
	if withShipping {
		changes = append(changes, model.NewShippingLineChange(r.shippingPrice, r.shippingTitle))
	}

	return &model.Offer{
		ID:                 id,
		Title:              v.Title,
		ProductTitle:       v.Product.Title,
		ProductImageURL:    v.Product.ImageURL,
		ProductDescription: description,
		OriginalPrice:      v.Price,
		DiscountedPrice:    model.DiscountedPrice(v.Price, model.DiscountPercent),
		SizeOptions:        sizeOptions(v.Product.Variants),
		Changes:            changes,
	}, nil
}

// sizeOptions filters the product's variants to those carrying a Size
// option, preserving catalog order. The variant reference is the trailing
// segment of the global identifier, which is what the extension sends
// back on selection.
func sizeOptions(refs []model.VariantRef) []model.SizeOption {
	options := make([]model.SizeOption, 0, len(refs))
	for _, ref := range refs {
		if ref.Size == "" {
			continue
		}
		options = append(options, model.SizeOption{
			Size:      ref.Size,
			VariantID: model.GIDTail(ref.ID),
		})
	}
	return options
}
