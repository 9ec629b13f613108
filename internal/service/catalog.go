package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"shopadmin/catalog/internal/categorytree"
	"shopadmin/catalog/internal/client"
	"shopadmin/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrUnknownFather         = errors.New("father category does not exist")
	ErrCategoryCycle         = errors.New("category cannot be moved under itself or its descendants")
	ErrInvalidStructuredData = errors.New("structured data is not valid JSON")
)

const breadcrumbSeparator = " › "

// Catalog serves the category tree and the category/product screens. The
// forest is rebuilt from the backend listing on every call.
type Catalog struct {
	client        client.BackendClient
	treeOptions   categorytree.Options
	canonicalBase string
}

func NewCatalog(client client.BackendClient, treeOptions categorytree.Options, canonicalBase string) *Catalog {
	return &Catalog{
		client:        client,
		treeOptions:   treeOptions,
		canonicalBase: canonicalBase,
	}
}

func (c *Catalog) Forest(ctx context.Context) (*categorytree.Forest, error) {
	categories, err := c.client.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	forest, err := categorytree.Build(categories, c.treeOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to build category tree: %w", err)
	}

	log.Debugf("Built category forest: %d roots, %d reachable, %d orphans",
		len(forest.Roots), forest.Len(), len(forest.Orphans()))
	return forest, nil
}

// CategoryPath is a root-to-node path with the matching titles
type CategoryPath struct {
	IDs    []string `json:"ids"`
	Titles []string `json:"titles"`
	Leaf   string   `json:"leaf"`
}

func newCategoryPath(f *categorytree.Forest, ids []string) CategoryPath {
	p := CategoryPath{IDs: ids, Titles: f.Titles(ids)}
	if len(ids) > 0 {
		p.Leaf = ids[len(ids)-1]
	}
	return p
}

func (c *Catalog) Path(ctx context.Context, id string) (*CategoryPath, error) {
	forest, err := c.Forest(ctx)
	if err != nil {
		return nil, err
	}

	ids, ok := forest.FindPath(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	p := newCategoryPath(forest, ids)
	return &p, nil
}

func (c *Catalog) CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	forest, err := c.Forest(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.prepare(forest, "", &in); err != nil {
		return nil, err
	}

	created, err := c.client.CreateCategory(ctx, in)
	if err != nil {
		return nil, err
	}

	log.Infof("✅ Created category %s (%q)", created.ID, created.Title)
	return created, nil
}

func (c *Catalog) UpdateCategory(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error) {
	forest, err := c.Forest(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := forest.Lookup(id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}

	if err := c.prepare(forest, id, &in); err != nil {
		return nil, err
	}

	updated, err := c.client.UpdateCategory(ctx, id, in)
	if err != nil {
		return nil, err
	}

	log.Infof("✅ Updated category %s (%q)", id, in.Title)
	return updated, nil
}

// DeleteCategory removes a category; the backend drops its whole subtree.
// The returned ids are the descendants that went with it.
func (c *Catalog) DeleteCategory(ctx context.Context, id string) ([]string, error) {
	forest, err := c.Forest(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := forest.Lookup(id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}

	removed := forest.Descendants(id)
	if err := c.client.DeleteCategory(ctx, id); err != nil {
		return nil, err
	}

	log.Infof("🗑️ Deleted category %s and %d descendants", id, len(removed))
	return removed, nil
}

// prepare validates the father, fills in the canonical URL and checks the
// structured data of a create (id == "") or update body.
func (c *Catalog) prepare(forest *categorytree.Forest, id string, in *domain.CategoryInput) error {
	if in.FatherID != nil && *in.FatherID == "" {
		in.FatherID = nil
	}
	if in.FatherID != nil {
		if _, ok := forest.Lookup(*in.FatherID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFather, *in.FatherID)
		}
		if id != "" && forest.WouldCycle(id, *in.FatherID) {
			return fmt.Errorf("%w: %s under %s", ErrCategoryCycle, id, *in.FatherID)
		}
	}

	if len(in.StructuredData) > 0 && !json.Valid(in.StructuredData) {
		return ErrInvalidStructuredData
	}

	in.CanonicalURL = c.canonicalURL(in.CanonicalURL, in.Title)
	if in.OgTitle == "" {
		in.OgTitle = in.MetaTitle
	}
	if in.OgDescription == "" {
		in.OgDescription = in.MetaDescription
	}
	return nil
}

func (c *Catalog) canonicalURL(explicit, title string) string {
	source := strings.TrimPrefix(strings.TrimSpace(explicit), c.canonicalBase)
	if source == "" {
		source = title
	}
	return c.canonicalBase + Slugify(source)
}

// Slugify lowercases s and joins its letter/digit runs with dashes. Non
// latin letters are kept.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}

// ProductRow is one line of the product table
type ProductRow struct {
	ID          string                     `json:"id"`
	Code        int                        `json:"code"`
	Name        string                     `json:"name"`
	Price       int64                      `json:"price"`
	Off         int                        `json:"off"`
	Count       int                        `json:"count"`
	IsAvailable bool                       `json:"isAvailable"`
	Categories  []string                   `json:"categories"`
	Tags        []string                   `json:"tags"`
	Description *client.DescriptionSummary `json:"description,omitempty"`
}

// Products fetches one page of products and the category tree concurrently
// and renders category breadcrumbs and description excerpts for each row.
func (c *Catalog) Products(ctx context.Context, q domain.ProductQuery) ([]ProductRow, int, error) {
	var (
		forest *categorytree.Forest
		page   *domain.ProductPage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		forest, err = c.Forest(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		page, err = c.client.ListProducts(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	rows := make([]ProductRow, 0, len(page.Products))
	for _, p := range page.Products {
		row := ProductRow{
			ID:          p.ID,
			Code:        p.Code,
			Name:        p.Name,
			Price:       p.Price,
			Off:         p.Off,
			Count:       p.Count,
			IsAvailable: p.IsAvailable,
			Categories:  make([]string, 0, len(p.CategoriesOnProduct)),
			Tags:        make([]string, 0, len(p.TagOnProduct)),
		}
		for _, cp := range p.CategoriesOnProduct {
			if crumb, ok := forest.Breadcrumb(cp.CategoryID, breadcrumbSeparator); ok {
				row.Categories = append(row.Categories, crumb)
			} else {
				row.Categories = append(row.Categories, cp.Category.Title)
			}
		}
		for _, tp := range p.TagOnProduct {
			row.Tags = append(row.Tags, tp.Tag.Title)
		}

		summary, err := client.SummarizeDescription(p.Description.Text, 160)
		if err != nil {
			log.Warnf("⚠️ Failed to summarize description of product %s: %v", p.ID, err)
		} else {
			row.Description = summary
		}

		rows = append(rows, row)
	}

	return rows, page.Total, nil
}

// Filters is what the product form needs besides the tree
type Filters struct {
	Categories []categorytree.Option `json:"categories"`
	Tags       []domain.Tag          `json:"tags"`
	Deliveries []domain.Delivery     `json:"deliveries"`
}

func (c *Catalog) Filters(ctx context.Context) (*Filters, error) {
	filters := &Filters{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		forest, err := c.Forest(gctx)
		if err != nil {
			return err
		}
		filters.Categories = forest.Options()
		return nil
	})
	g.Go(func() error {
		tags, err := c.client.ListTags(gctx)
		filters.Tags = tags
		return err
	})
	g.Go(func() error {
		deliveries, err := c.client.ListDeliveries(gctx)
		filters.Deliveries = deliveries
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

func (c *Catalog) DeleteProduct(ctx context.Context, id string) error {
	if err := c.client.DeleteProduct(ctx, id); err != nil {
		return err
	}
	log.Infof("🗑️ Deleted product %s", id)
	return nil
}

func (c *Catalog) Tags(ctx context.Context) ([]domain.Tag, error) {
	return c.client.ListTags(ctx)
}

func (c *Catalog) CreateTag(ctx context.Context, in domain.TagInput) (*domain.Tag, error) {
	prepareTag(&in)
	created, err := c.client.CreateTag(ctx, in)
	if err != nil {
		return nil, err
	}
	log.Infof("✅ Created tag %s (%q)", created.ID, created.Title)
	return created, nil
}

func (c *Catalog) UpdateTag(ctx context.Context, id string, in domain.TagInput) (*domain.Tag, error) {
	prepareTag(&in)
	updated, err := c.client.UpdateTag(ctx, id, in)
	if err != nil {
		return nil, err
	}
	log.Infof("✅ Updated tag %s (%q)", id, in.Title)
	return updated, nil
}

func (c *Catalog) DeleteTag(ctx context.Context, id string) error {
	if err := c.client.DeleteTag(ctx, id); err != nil {
		return err
	}
	log.Infof("🗑️ Deleted tag %s", id)
	return nil
}

func (c *Catalog) AssignTag(ctx context.Context, productID, tagID string) error {
	return c.client.AssignTag(ctx, productID, tagID)
}

func (c *Catalog) UnassignTag(ctx context.Context, productID, tagID string) error {
	return c.client.UnassignTag(ctx, productID, tagID)
}

// prepareTag fills the open graph fields from the meta ones, as categories do
func prepareTag(in *domain.TagInput) {
	in.Title = strings.TrimSpace(in.Title)
	if in.OgTitle == "" {
		in.OgTitle = in.MetaTitle
	}
	if in.OgDescription == "" {
		in.OgDescription = in.MetaDescription
	}
}

func (c *Catalog) Deliveries(ctx context.Context) ([]domain.Delivery, error) {
	return c.client.ListDeliveries(ctx)
}

func (c *Catalog) CreateDelivery(ctx context.Context, in domain.DeliveryInput) (*domain.Delivery, error) {
	if in.DeliveryType == domain.DeliveryFree {
		in.Rate = ""
	}
	created, err := c.client.CreateDelivery(ctx, in)
	if err != nil {
		return nil, err
	}
	log.Infof("✅ Created %s delivery %s", created.DeliveryType, created.ID)
	return created, nil
}

func (c *Catalog) UpdateDelivery(ctx context.Context, id string, in domain.DeliveryInput) (*domain.Delivery, error) {
	if in.DeliveryType == domain.DeliveryFree {
		in.Rate = ""
	}
	updated, err := c.client.UpdateDelivery(ctx, id, in)
	if err != nil {
		return nil, err
	}
	log.Infof("✅ Updated delivery %s", id)
	return updated, nil
}

func (c *Catalog) DeleteDelivery(ctx context.Context, id string) error {
	if err := c.client.DeleteDelivery(ctx, id); err != nil {
		return err
	}
	log.Infof("🗑️ Deleted delivery %s", id)
	return nil
}
