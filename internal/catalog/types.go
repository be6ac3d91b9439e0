package catalog

// Wire types for the catalog GraphQL API. Only the fields the offer flow
// extracts are modeled; everything else in the response is ignored.

// graphQLRequest is the POST body for a query document.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLError is a single entry of the top-level errors array.
type graphQLError struct {
	Message string `json:"message"`
}

// variantNode is a product variant as returned by the catalog API.
type variantNode struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Price   string      `json:"price"`
	Product productNode `json:"product"`
}

// productNode holds the product fields queried alongside a variant.
type productNode struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	FeaturedImage *imageNode        `json:"featuredImage"`
	Variants      siblingConnection `json:"variants"`
}

type imageNode struct {
	URL string `json:"url"`
}

// siblingConnection is the edges/node envelope around a product's variant
// list.
type siblingConnection struct {
	Edges []struct {
		Node siblingNode `json:"node"`
	} `json:"edges"`
}

// siblingNode is a sibling variant carrying its selected options.
type siblingNode struct {
	ID              string           `json:"id"`
	SelectedOptions []selectedOption `json:"selectedOptions"`
}

type selectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// pageResponse envelops the discovery query result.
type pageResponse struct {
	Data struct {
		ProductVariants struct {
			Edges []struct {
				Node variantNode `json:"node"`
			} `json:"edges"`
		} `json:"productVariants"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// lookupResponse envelops the single-variant query result.
// ProductVariant is null when the identifier resolves to nothing.
type lookupResponse struct {
	Data struct {
		ProductVariant *variantNode `json:"productVariant"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}
