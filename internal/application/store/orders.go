package store

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shopfront/client/internal/domain/session"
	"github.com/shopfront/client/internal/domain/shop"
	"github.com/shopfront/client/internal/infrastructure/api"
	"github.com/shopfront/client/internal/infrastructure/sessionstore"
)

// Orders owns the shopper's order history. Order status is mutated only by
// the server; the client observes transitions exclusively through reload.
type Orders struct {
	col      *Collection[shop.Order]
	client   *api.Client
	sessions *sessionstore.Store
	validate *validator.Validate
	log      *zap.Logger
}

// NewOrders creates the orders store bound to the session lifecycle.
func NewOrders(client *api.Client, sessions *sessionstore.Store, log *zap.Logger) *Orders {
	o := &Orders{
		client:   client,
		sessions: sessions,
		validate: validator.New(),
		log:      log.Named("orders"),
	}
	o.col = NewCollection("orders", o.fetch, log)
	sessions.Watch(func(s *session.Session) {
		if s == nil {
			o.col.Clear()
			return
		}
		if err := o.col.Load(context.Background()); err != nil {
			o.log.Warn("orders resync after session change failed", zap.Error(err))
		}
	})
	return o
}

// Load fetches the order history for the current session; clears when anonymous.
func (o *Orders) Load(ctx context.Context) error {
	if o.sessions.Current() == nil {
		o.col.Clear()
		return nil
	}
	return o.col.Load(ctx)
}

// List returns a copy of the current order history.
func (o *Orders) List() []shop.Order {
	return o.col.Items()
}

// State returns the order store's lifecycle state.
func (o *Orders) State() State {
	return o.col.State()
}

// Checkout places an order from the current server cart and resynchronizes
// the order history. The created order is returned on success.
func (o *Orders) Checkout(ctx context.Context, in shop.CheckoutInput) (*shop.Order, error) {
	if o.sessions.Current() == nil {
		return nil, shop.ErrNotSignedIn
	}
	if err := o.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", shop.ErrInvalidInput, err)
	}

	var created shop.Order
	err := o.col.Mutate(ctx, func(ctx context.Context) error {
		return o.client.Do(ctx, "POST", "/order/checkout/", in, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (o *Orders) fetch(ctx context.Context) ([]shop.Order, error) {
	var orders []shop.Order
	if err := o.client.Do(ctx, "GET", "/order/", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
