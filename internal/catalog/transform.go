package catalog

import (
	"upsell-server/internal/model"
)

// sizeOptionName is the selected-option name that marks a variant as a
// size choice. Option names are merchant-defined; "Size" is the platform
// convention this app follows.
const sizeOptionName = "Size"

// snapshotFromNode converts a GraphQL variant node into the neutral
// catalog snapshot the offer resolver consumes. Sibling variants keep
// catalog order; only their Size option (if any) is extracted.
func snapshotFromNode(n variantNode) model.CatalogVariant {
	imageURL := ""
	if n.Product.FeaturedImage != nil {
		imageURL = n.Product.FeaturedImage.URL
	}

	siblings := make([]model.VariantRef, 0, len(n.Product.Variants.Edges))
	for _, edge := range n.Product.Variants.Edges {
		siblings = append(siblings, model.VariantRef{
			ID:   edge.Node.ID,
			Size: sizeOption(edge.Node.SelectedOptions),
		})
	}

	return model.CatalogVariant{
		ID:    n.ID,
		Title: n.Title,
		Price: n.Price,
		Product: model.CatalogProduct{
			Title:       n.Product.Title,
			Description: n.Product.Description,
			ImageURL:    imageURL,
			Variants:    siblings,
		},
	}
}

// sizeOption returns the value of the Size selected option, or "" when
// the variant has none.
func sizeOption(opts []selectedOption) string {
	for _, opt := range opts {
		if opt.Name == sizeOptionName {
			return opt.Value
		}
	}
	return ""
}
