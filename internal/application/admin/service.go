package admin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopfront/client/internal/domain/shop"
	"github.com/shopfront/client/internal/infrastructure/api"
	"github.com/shopfront/client/internal/infrastructure/sessionstore"
)

// DashboardStats is the admin dashboard aggregate.
type DashboardStats struct {
	TotalOrders    int64           `json:"total_orders"`
	PendingOrders  int64           `json:"pending_orders"`
	TotalCustomers int64           `json:"total_customers"`
	TotalProducts  int64           `json:"total_products"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	RecentOrders   []shop.Order    `json:"recent_orders"`
}

// OrderFilter narrows admin order queries. Zero values are omitted.
type OrderFilter struct {
	Page   int
	Search string
	Status shop.OrderStatus
}

// Service is the admin console client: dashboard, customers, products and
// orders under the admin-scoped endpoint prefix. Every list call returns the
// normalized paginated envelope; every mutation is one write followed by a
// re-fetch of the affected entity.
type Service struct {
	client   *api.Client
	sessions *sessionstore.Store
	validate *validator.Validate
	log      *zap.Logger
}

// NewService creates the admin service.
func NewService(client *api.Client, sessions *sessionstore.Store, log *zap.Logger) *Service {
	return &Service{
		client:   client,
		sessions: sessions,
		validate: validator.New(),
		log:      log.Named("admin"),
	}
}

// Dashboard fetches the admin dashboard aggregates.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	var stats DashboardStats
	if err := s.client.Do(ctx, "GET", "/admin/dashboard/", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Customers lists shopper accounts, optionally filtered by a search term.
func (s *Service) Customers(ctx context.Context, page int, search string) (*api.Page[shop.Customer], error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	values := url.Values{}
	values.Set("search", search)
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	return api.GetPage[shop.Customer](ctx, s.client, "/admin/users/", values)
}

// SetCustomerBlocked blocks or unblocks an account. The next request from a
// blocked customer's session receives 403 and force-clears that session.
func (s *Service) SetCustomerBlocked(ctx context.Context, customerID int64, blocked bool) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	body := map[string]bool{"blocked": blocked}
	return s.client.Do(ctx, "PUT", fmt.Sprintf("/admin/users/%d/", customerID), body, nil)
}

// Products lists catalog entries for the admin table.
func (s *Service) Products(ctx context.Context, page int, search string) (*api.Page[shop.Product], error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	values := url.Values{}
	values.Set("search", search)
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	return api.GetPage[shop.Product](ctx, s.client, "/admin/products/", values)
}

// CreateProduct creates a catalog entry from validated input.
func (s *Service) CreateProduct(ctx context.Context, in shop.ProductInput) (*shop.Product, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	if err := s.validateProduct(in); err != nil {
		return nil, err
	}
	var created shop.Product
	if err := s.client.Do(ctx, "POST", "/admin/products/", in, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProduct replaces a catalog entry with validated input.
func (s *Service) UpdateProduct(ctx context.Context, productID int64, in shop.ProductInput) (*shop.Product, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	if err := s.validateProduct(in); err != nil {
		return nil, err
	}
	var updated shop.Product
	if err := s.client.Do(ctx, "PUT", fmt.Sprintf("/admin/products/%d/", productID), in, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProduct removes a catalog entry.
func (s *Service) DeleteProduct(ctx context.Context, productID int64) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	return s.client.Do(ctx, "DELETE", fmt.Sprintf("/admin/products/%d/", productID), nil, nil)
}

// Orders lists orders for the admin table with page/search/status filters.
func (s *Service) Orders(ctx context.Context, f OrderFilter) (*api.Page[shop.Order], error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.IsValid() {
		return nil, shop.ErrInvalidStatus
	}
	values := url.Values{}
	values.Set("search", f.Search)
	values.Set("status", string(f.Status))
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	return api.GetPage[shop.Order](ctx, s.client, "/admin/orders/", values)
}

// UpdateOrderStatus sets an order's status and returns the server's view of
// the order after the write: one mutation, then a re-fetch, never a local
// transition.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, status shop.OrderStatus) (*shop.Order, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, shop.ErrInvalidStatus
	}

	body := map[string]string{"status": string(status)}
	if err := s.client.Do(ctx, "PUT", fmt.Sprintf("/admin/orders/%d/", orderID), body, nil); err != nil {
		return nil, err
	}

	var order shop.Order
	if err := s.client.Do(ctx, "GET", fmt.Sprintf("/admin/orders/%d/", orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) requireAdmin() error {
	sess := s.sessions.Current()
	if sess == nil {
		return shop.ErrNotSignedIn
	}
	if !sess.IsAdmin() {
		return shop.ErrAdminOnly
	}
	return nil
}

func (s *Service) validateProduct(in shop.ProductInput) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", shop.ErrInvalidInput, err)
	}
	return in.Validate()
}
