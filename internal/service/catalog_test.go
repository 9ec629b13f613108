package service

import (
	"context"
	"encoding/json"
	"testing"

	"shopadmin/catalog/internal/categorytree"
	"shopadmin/catalog/internal/client"
	"shopadmin/catalog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCanonicalBase = "https://shop.test/category/"

// 1 ─┬─ 2 ── 4
//    └─ 3
// 5
// 6 (father 99 does not exist)
func sampleBackend() *fakeBackend {
	return newFakeBackend(
		cat("1", ""),
		cat("2", "1"),
		cat("3", "1"),
		cat("4", "2"),
		cat("5", ""),
		cat("6", "99"),
	)
}

func newTestCatalog(b *fakeBackend) *Catalog {
	return NewCatalog(b, categorytree.Options{OrphanPolicy: categorytree.DropOrphans}, testCanonicalBase)
}

func strPtr(s string) *string { return &s }

func TestCatalogPath(t *testing.T) {
	c := newTestCatalog(sampleBackend())

	p, err := c.Path(context.Background(), "4")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "4"}, p.IDs)
	assert.Equal(t, []string{"title-1", "title-2", "title-4"}, p.Titles)
	assert.Equal(t, "4", p.Leaf)

	_, err = c.Path(context.Background(), "6")
	assert.ErrorIs(t, err, ErrCategoryNotFound, "dropped orphan has no path")

	_, err = c.Path(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCreateCategoryFillsDerivedFields(t *testing.T) {
	b := sampleBackend()
	c := newTestCatalog(b)

	created, err := c.CreateCategory(context.Background(), domain.CategoryInput{
		Title:           "Winter Jackets & Coats",
		FatherID:        strPtr("2"),
		MetaTitle:       "Jackets",
		MetaDescription: "Warm jackets",
		StructuredData:  json.RawMessage(`{"@type":"ItemList"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Winter Jackets & Coats", created.Title)

	require.Len(t, b.created, 1)
	sent := b.created[0]
	assert.Equal(t, testCanonicalBase+"winter-jackets-coats", sent.CanonicalURL)
	assert.Equal(t, "Jackets", sent.OgTitle)
	assert.Equal(t, "Warm jackets", sent.OgDescription)
}

func TestCreateCategoryKeepsExplicitCanonical(t *testing.T) {
	b := sampleBackend()
	c := newTestCatalog(b)

	_, err := c.CreateCategory(context.Background(), domain.CategoryInput{
		Title:        "Shoes",
		CanonicalURL: testCanonicalBase + "Running Shoes",
		OgTitle:      "custom",
	})
	require.NoError(t, err)
	assert.Equal(t, testCanonicalBase+"running-shoes", b.created[0].CanonicalURL)
	assert.Equal(t, "custom", b.created[0].OgTitle)
	assert.Nil(t, b.created[0].FatherID)
}

func TestCreateCategoryValidation(t *testing.T) {
	tests := []struct {
		name string
		in   domain.CategoryInput
		want error
	}{
		{
			name: "unknown father",
			in:   domain.CategoryInput{Title: "x", FatherID: strPtr("99")},
			want: ErrUnknownFather,
		},
		{
			name: "invalid structured data",
			in:   domain.CategoryInput{Title: "x", StructuredData: json.RawMessage(`{"broken"`)},
			want: ErrInvalidStructuredData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := sampleBackend()
			_, err := newTestCatalog(b).CreateCategory(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, b.created)
		})
	}
}

func TestUpdateCategoryRejectsCycles(t *testing.T) {
	b := sampleBackend()
	c := newTestCatalog(b)

	_, err := c.UpdateCategory(context.Background(), "1", domain.CategoryInput{Title: "x", FatherID: strPtr("4")})
	assert.ErrorIs(t, err, ErrCategoryCycle)

	_, err = c.UpdateCategory(context.Background(), "2", domain.CategoryInput{Title: "x", FatherID: strPtr("2")})
	assert.ErrorIs(t, err, ErrCategoryCycle)

	_, err = c.UpdateCategory(context.Background(), "missing", domain.CategoryInput{Title: "x"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	_, err = c.UpdateCategory(context.Background(), "4", domain.CategoryInput{Title: "moved", FatherID: strPtr("5")})
	require.NoError(t, err)
	assert.Equal(t, "5", *b.updated["4"].FatherID)
}

func TestUpdateCategoryEmptyFatherMeansRoot(t *testing.T) {
	b := sampleBackend()
	_, err := newTestCatalog(b).UpdateCategory(context.Background(), "2", domain.CategoryInput{Title: "x", FatherID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, b.updated["2"].FatherID)
}

func TestDeleteCategoryReportsDescendants(t *testing.T) {
	b := sampleBackend()
	c := newTestCatalog(b)

	removed, err := c.DeleteCategory(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "4", "3"}, removed)
	assert.Equal(t, []string{"1"}, b.deleted)

	_, err = c.DeleteCategory(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":         "hello-world",
		"  trim me  ":         "trim-me",
		"a--b__c":             "a-b-c",
		"Crème brûlée 2024!":  "crème-brûlée-2024",
		"---":                 "",
		"لباس مردانه":         "لباس-مردانه",
		"already-a-slug":      "already-a-slug",
		"Winter Jackets & Co": "winter-jackets-co",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestProductsRendersBreadcrumbs(t *testing.T) {
	b := sampleBackend()
	b.page = &domain.ProductPage{
		Total: 42,
		Products: []domain.Product{{
			ID:          "p1",
			Name:        "Parka",
			Description: domain.RichText{Text: "<p>Warm <b>parka</b></p>"},
			CategoriesOnProduct: []domain.CategoryOnProduct{
				{CategoryID: "4"},
				{CategoryID: "gone", Category: domain.Category{Title: "Old"}},
			},
			TagOnProduct: []domain.TagOnProduct{{TagID: "t1", Tag: domain.Tag{ID: "t1", Title: "sale"}}},
		}},
	}

	rows, total, err := newTestCatalog(b).Products(context.Background(), domain.ProductQuery{Take: 10})
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"title-1 › title-2 › title-4", "Old"}, rows[0].Categories)
	assert.Equal(t, []string{"sale"}, rows[0].Tags)
	require.NotNil(t, rows[0].Description)
	assert.Equal(t, "Warm parka", rows[0].Description.Excerpt)
}

func TestFilters(t *testing.T) {
	b := sampleBackend()
	b.tags = []domain.Tag{{ID: "t1", Title: "sale"}}
	b.deliveries = []domain.Delivery{{ID: "d1", DeliveryType: "post"}}

	f, err := newTestCatalog(b).Filters(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.Categories, 5)
	assert.Equal(t, b.tags, f.Tags)
	assert.Equal(t, b.deliveries, f.Deliveries)
}

func TestDeleteProduct(t *testing.T) {
	b := sampleBackend()
	b.products["p1"] = &domain.Product{ID: "p1"}
	c := newTestCatalog(b)

	require.NoError(t, c.DeleteProduct(context.Background(), "p1"))
	assert.Equal(t, []string{"p1"}, b.deletedProducts)

	err := c.DeleteProduct(context.Background(), "p1")
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestTagLifecycle(t *testing.T) {
	ctx := context.Background()
	b := sampleBackend()
	c := newTestCatalog(b)

	created, err := c.CreateTag(ctx, domain.TagInput{Title: "  Winter ", MetaTitle: "Winter gear", MetaDescription: "Warm things"})
	require.NoError(t, err)
	assert.Equal(t, "Winter", created.Title)
	sent := b.tagInputs[created.ID]
	assert.Equal(t, "Winter gear", sent.OgTitle)
	assert.Equal(t, "Warm things", sent.OgDescription)

	_, err = c.UpdateTag(ctx, created.ID, domain.TagInput{Title: "Snow", OgTitle: "Snow!", MetaTitle: "Snow gear"})
	require.NoError(t, err)
	assert.Equal(t, "Snow!", b.tagInputs[created.ID].OgTitle, "explicit og title is kept")

	require.NoError(t, c.AssignTag(ctx, "p1", created.ID))
	require.NoError(t, c.UnassignTag(ctx, "p1", created.ID))
	assert.ErrorIs(t, c.UnassignTag(ctx, "p1", created.ID), client.ErrNotFound)

	require.NoError(t, c.DeleteTag(ctx, created.ID))
	assert.Equal(t, []string{created.ID}, b.deletedTags)
}

func TestDeliveryLifecycle(t *testing.T) {
	ctx := context.Background()
	b := sampleBackend()
	c := newTestCatalog(b)

	free, err := c.CreateDelivery(ctx, domain.DeliveryInput{DeliveryType: domain.DeliveryFree, Rate: "100"})
	require.NoError(t, err)
	assert.Empty(t, free.Rate, "free delivery has no rate")

	fixed, err := c.UpdateDelivery(ctx, free.ID, domain.DeliveryInput{DeliveryType: domain.DeliveryFixedRate, Rate: "50000"})
	require.NoError(t, err)
	assert.Equal(t, "50000", fixed.Rate)

	require.NoError(t, c.DeleteDelivery(ctx, free.ID))
	assert.Empty(t, b.deliveryInputs)
}
