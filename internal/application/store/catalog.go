package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/shopfront/client/internal/domain/session"
	"github.com/shopfront/client/internal/domain/shop"
	"github.com/shopfront/client/internal/infrastructure/api"
	"github.com/shopfront/client/internal/infrastructure/sessionstore"
)

// ProductFilter narrows catalog queries. Zero values are omitted.
type ProductFilter struct {
	Category    string
	SubCategory string
	Search      string
	Page        int
}

// Catalog owns the product collection. It is readable anonymously, but like
// every domain store its contents never outlive the session that produced
// them: session end clears it, and the next view mount reloads it.
type Catalog struct {
	col      *Collection[shop.Product]
	client   *api.Client
	sessions *sessionstore.Store
	log      *zap.Logger
}

// NewCatalog creates the catalog store bound to the session lifecycle.
func NewCatalog(client *api.Client, sessions *sessionstore.Store, log *zap.Logger) *Catalog {
	c := &Catalog{
		client:   client,
		sessions: sessions,
		log:      log.Named("catalog"),
	}
	c.col = NewCollection("catalog", c.fetch, log)
	sessions.Watch(func(s *session.Session) {
		if s == nil {
			c.col.Clear()
			return
		}
		if err := c.col.Load(context.Background()); err != nil {
			c.log.Warn("catalog resync after session change failed", zap.Error(err))
		}
	})
	return c
}

// Load fetches the first catalog page. Anonymous loads are allowed; the
// catalog is the one publicly viewable collection.
func (c *Catalog) Load(ctx context.Context) error {
	return c.col.Load(ctx)
}

// Products returns a copy of the loaded products.
func (c *Catalog) Products() []shop.Product {
	return c.col.Items()
}

// State returns the catalog's lifecycle state.
func (c *Catalog) State() State {
	return c.col.State()
}

// Search queries the catalog with the given filter and returns one page.
// Results bypass the owned collection; search is a transient view.
func (c *Catalog) Search(ctx context.Context, f ProductFilter) (*api.Page[shop.Product], error) {
	return api.GetPage[shop.Product](ctx, c.client, "/products/", f.query())
}

// Get fetches a single product by ID.
func (c *Catalog) Get(ctx context.Context, productID int64) (*shop.Product, error) {
	var product shop.Product
	if err := c.client.Do(ctx, "GET", fmt.Sprintf("/products/%d/", productID), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Catalog) fetch(ctx context.Context) ([]shop.Product, error) {
	page, err := api.GetPage[shop.Product](ctx, c.client, "/products/", nil)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (f ProductFilter) query() url.Values {
	values := url.Values{}
	values.Set("category", f.Category)
	values.Set("sub_category", f.SubCategory)
	values.Set("search", f.Search)
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	return values
}
