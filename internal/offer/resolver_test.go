package offer

import (
	"context"
	"errors"
	"testing"

	"upsell-server/internal/catalog"
	"upsell-server/internal/model"
)

// mockSource implements DataSource for testing.
// Each method can be configured via function fields.
type mockSource struct {
	VariantPageFunc func(ctx context.Context, creds catalog.Credentials, first int) ([]model.CatalogVariant, error)
	VariantByIDFunc func(ctx context.Context, creds catalog.Credentials, variantID string) (*model.CatalogVariant, error)
}

func (m *mockSource) VariantPage(ctx context.Context, creds catalog.Credentials, first int) ([]model.CatalogVariant, error) {
	if m.VariantPageFunc != nil {
		return m.VariantPageFunc(ctx, creds, first)
	}
	return nil, nil
}

func (m *mockSource) VariantByID(ctx context.Context, creds catalog.Credentials, variantID string) (*model.CatalogVariant, error) {
	if m.VariantByIDFunc != nil {
		return m.VariantByIDFunc(ctx, creds, variantID)
	}
	return nil, nil
}

func testCreds() catalog.Credentials {
	return catalog.Credentials{Shop: "demo.example-shop.com", AccessToken: "tok"}
}

func fixtureVariant(id, price string) model.CatalogVariant {
	return model.CatalogVariant{
		ID:    id,
		Title: "M",
		Price: price,
		Product: model.CatalogProduct{
			Title:       "Tee",
			Description: "Soft cotton tee",
			ImageURL:    "https://cdn.example.com/tee.png",
			Variants: []model.VariantRef{
				{ID: "gid://shop/ProductVariant/101", Size: "S"},
				{ID: "gid://shop/ProductVariant/102", Size: "M"},
				{ID: "gid://shop/ProductVariant/103", Size: "L"},
			},
		},
	}
}

// fixtureResolver uses FirstStrategy so selection is deterministic.
func fixtureResolver(source DataSource) *Resolver {
	return NewResolver(Config{Source: source, Strategy: FirstStrategy{}})
}

func TestResolve(t *testing.T) {
	source := &mockSource{
		VariantPageFunc: func(ctx context.Context, creds catalog.Credentials, first int) ([]model.CatalogVariant, error) {
			if first != 10 {
				t.Errorf("page size = %d, want 10", first)
			}
			return []model.CatalogVariant{
				fixtureVariant("gid://shop/ProductVariant/101", "33.00"),
				fixtureVariant("gid://shop/ProductVariant/102", "40.00"),
			}, nil
		},
	}

	got, err := fixtureResolver(source).Resolve(context.Background(), testCreds())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got.ID != 101 {
		t.Errorf("ID = %d, want 101", got.ID)
	}
	if got.OriginalPrice != "33.00" || got.DiscountedPrice != "28.05" {
		t.Errorf("prices = %q/%q, want 33.00/28.05", got.OriginalPrice, got.DiscountedPrice)
	}

	// changes[0] is always the add_variant for the chosen variant
	if len(got.Changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(got.Changes))
	}
	first := got.Changes[0]
	if first.Type != model.ChangeAddVariant || first.VariantID != "gid://shop/ProductVariant/101" {
		t.Errorf("changes[0] = %+v, want add_variant for chosen variant", first)
	}
	if first.Quantity != 1 || first.Discount == nil || first.Discount.Value != 15 {
		t.Errorf("changes[0] terms = %+v, want qty 1 with 15%% discount", first)
	}

	// discovery mode appends the flat shipping line
	second := got.Changes[1]
	if second.Type != model.ChangeAddShippingLine || second.Price != "10.00" {
		t.Errorf("changes[1] = %+v, want flat shipping line", second)
	}
}

func TestResolveCatalogEmpty(t *testing.T) {
	source := &mockSource{
		VariantPageFunc: func(ctx context.Context, creds catalog.Credentials, first int) ([]model.CatalogVariant, error) {
			return nil, nil
		},
	}

	_, err := fixtureResolver(source).Resolve(context.Background(), testCreds())
	if !errors.Is(err, model.ErrCatalogEmpty) {
		t.Errorf("error = %v, want ErrCatalogEmpty", err)
	}
}

func TestResolveTransportErrorPropagates(t *testing.T) {
	source := &mockSource{
		VariantPageFunc: func(ctx context.Context, creds catalog.Credentials, first int) ([]model.CatalogVariant, error) {
			return nil, model.NewUpstreamError("catalog", errors.New("boom"))
		},
	}

	_, err := fixtureResolver(source).Resolve(context.Background(), testCreds())
	if !errors.Is(err, model.ErrUpstreamError) {
		t.Errorf("error = %v, want ErrUpstreamError", err)
	}
}

func TestResolveMalformedIdentifier(t *testing.T) {
	source := &mockSource{
		VariantPageFunc: func(ctx context.Context, creds catalog.Credentials, first int) ([]model.CatalogVariant, error) {
			return []model.CatalogVariant{fixtureVariant("gid://shop/ProductVariant/oops", "10.00")}, nil
		},
	}

	_, err := fixtureResolver(source).Resolve(context.Background(), testCreds())
	if !errors.Is(err, model.ErrMalformedIdentifier) {
		t.Errorf("error = %v, want ErrMalformedIdentifier", err)
	}
}

// Every index on the page must be reachable and the chosen variant's id
// must come from the page.
func TestResolveSelectionWithinPage(t *testing.T) {
	page := []model.CatalogVariant{
		fixtureVariant("gid://shop/ProductVariant/101", "10.00"),
		fixtureVariant("gid://shop/ProductVariant/102", "20.00"),
		fixtureVariant("gid://shop/ProductVariant/103", "30.00"),
	}
	source := &mockSource{
		VariantPageFunc: func(ctx context.Context, creds catalog.Credentials, first int) ([]model.CatalogVariant, error) {
			return page, nil
		},
	}
	resolver := NewResolver(Config{Source: source}) // default random strategy

	valid := map[int64]bool{101: true, 102: true, 103: true}
	for i := 0; i < 20; i++ {
		got, err := resolver.Resolve(context.Background(), testCreds())
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !valid[got.ID] {
			t.Fatalf("resolved ID %d not in page", got.ID)
		}
	}
}

func TestResolveDefaults(t *testing.T) {
	v := fixtureVariant("gid://shop/ProductVariant/101", "33.00")
	v.Product.Description = ""
	v.Product.ImageURL = ""
	source := &mockSource{
		VariantPageFunc: func(ctx context.Context, creds catalog.Credentials, first int) ([]model.CatalogVariant, error) {
			return []model.CatalogVariant{v}, nil
		},
	}

	got, err := fixtureResolver(source).Resolve(context.Background(), testCreds())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ProductImageURL != "" {
		t.Errorf("ProductImageURL = %q, want empty", got.ProductImageURL)
	}
	if got.ProductDescription != descriptionPlaceholder {
		t.Errorf("ProductDescription = %q, want placeholder", got.ProductDescription)
	}
}

func TestSizeOptionsOrder(t *testing.T) {
	source := &mockSource{
		VariantPageFunc: func(ctx context.Context, creds catalog.Credentials, first int) ([]model.CatalogVariant, error) {
			v := fixtureVariant("gid://shop/ProductVariant/101", "33.00")
			// one sizeless variant mixed in
			v.Product.Variants = append(v.Product.Variants[:2:2],
				model.VariantRef{ID: "gid://shop/ProductVariant/104"},
				v.Product.Variants[2])
			return []model.CatalogVariant{v}, nil
		},
	}

	got, err := fixtureResolver(source).Resolve(context.Background(), testCreds())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := []model.SizeOption{
		{Size: "S", VariantID: "101"},
		{Size: "M", VariantID: "102"},
		{Size: "L", VariantID: "103"},
	}
	if len(got.SizeOptions) != len(want) {
		t.Fatalf("got %d size options, want %d", len(got.SizeOptions), len(want))
	}
	for i := range want {
		if got.SizeOptions[i] != want[i] {
			t.Errorf("sizeOptions[%d] = %+v, want %+v", i, got.SizeOptions[i], want[i])
		}
	}
}

func TestLookup(t *testing.T) {
	source := &mockSource{
		VariantByIDFunc: func(ctx context.Context, creds catalog.Credentials, variantID string) (*model.CatalogVariant, error) {
			v := fixtureVariant(variantID, "33.00")
			return &v, nil
		},
	}

	got, err := fixtureResolver(source).Lookup(context.Background(), testCreds(), "gid://shop/ProductVariant/102")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got == nil {
		t.Fatal("offer = nil, want resolved offer")
	}

	// lookup mode: no shipping line
	if len(got.Changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(got.Changes))
	}
	if got.Changes[0].VariantID != "gid://shop/ProductVariant/102" {
		t.Errorf("changes[0].VariantID = %q", got.Changes[0].VariantID)
	}
}

// An unknown variant is (nil, nil): a normal outcome, never a panic or
// an error escaping the boundary.
func TestLookupNotFound(t *testing.T) {
	source := &mockSource{
		VariantByIDFunc: func(ctx context.Context, creds catalog.Credentials, variantID string) (*model.CatalogVariant, error) {
			return nil, nil
		},
	}

	got, err := fixtureResolver(source).Lookup(context.Background(), testCreds(), "gid://shop/ProductVariant/999")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != nil {
		t.Errorf("offer = %+v, want nil", got)
	}
}

// Transport failures stay errors at the resolver boundary so callers can
// distinguish them from not-found.
func TestLookupTransportError(t *testing.T) {
	source := &mockSource{
		VariantByIDFunc: func(ctx context.Context, creds catalog.Credentials, variantID string) (*model.CatalogVariant, error) {
			return nil, model.NewUpstreamError("catalog", errors.New("timeout"))
		},
	}

	_, err := fixtureResolver(source).Lookup(context.Background(), testCreds(), "gid://shop/ProductVariant/1")
	if !errors.Is(err, model.ErrUpstreamError) {
		t.Errorf("error = %v, want ErrUpstreamError", err)
	}
}
