package store

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopfront/client/internal/domain/session"
	"github.com/shopfront/client/internal/domain/shop"
	"github.com/shopfront/client/internal/infrastructure/api"
	"github.com/shopfront/client/internal/infrastructure/sessionstore"
)

// Cart owns the server-backed cart collection for the current session.
// Every mutation issues one write call followed by a full reload; quantities
// are never derived locally from a delta.
type Cart struct {
	col      *Collection[shop.CartLine]
	client   *api.Client
	sessions *sessionstore.Store
	validate *validator.Validate
	log      *zap.Logger
}

// NewCart creates the cart store and binds it to the session lifecycle:
// login triggers a load, logout clears the collection.
func NewCart(client *api.Client, sessions *sessionstore.Store, log *zap.Logger) *Cart {
	c := &Cart{
		client:   client,
		sessions: sessions,
		validate: validator.New(),
		log:      log.Named("cart"),
	}
	c.col = NewCollection("cart", c.fetch, log)
	sessions.Watch(func(s *session.Session) {
		if s == nil {
			c.col.Clear()
			return
		}
		if err := c.col.Load(context.Background()); err != nil {
			c.log.Warn("cart resync after session change failed", zap.Error(err))
		}
	})
	return c
}

// Load fetches the cart for the current session. Without a session the cart
// clears to empty; anonymous carts live in the local guest store instead.
func (c *Cart) Load(ctx context.Context) error {
	if c.sessions.Current() == nil {
		c.col.Clear()
		return nil
	}
	return c.col.Load(ctx)
}

// Lines returns a copy of the current cart lines.
func (c *Cart) Lines() []shop.CartLine {
	return c.col.Items()
}

// State returns the cart's lifecycle state.
func (c *Cart) State() State {
	return c.col.State()
}

// Subtotal sums the line totals of the current cart.
func (c *Cart) Subtotal() decimal.Decimal {
	return shop.CartSubtotal(c.col.Items())
}

// Add issues an "add to cart" intent and resynchronizes.
func (c *Cart) Add(ctx context.Context, in shop.AddToCartInput) error {
	if err := c.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", shop.ErrInvalidInput, err)
	}
	return c.col.Mutate(ctx, func(ctx context.Context) error {
		return c.client.Do(ctx, "POST", "/cart/add/", in, nil)
	})
}

// UpdateQuantity replaces the quantity of one cart line and resynchronizes.
func (c *Cart) UpdateQuantity(ctx context.Context, lineID, quantity int64) error {
	in := shop.UpdateQuantityInput{Quantity: quantity}
	if err := c.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", shop.ErrInvalidQuantity, err)
	}
	return c.col.Mutate(ctx, func(ctx context.Context) error {
		return c.client.Do(ctx, "PUT", fmt.Sprintf("/cart/update/%d/", lineID), in, nil)
	})
}

// Remove deletes one cart line and resynchronizes.
func (c *Cart) Remove(ctx context.Context, lineID int64) error {
	return c.col.Mutate(ctx, func(ctx context.Context) error {
		return c.client.Do(ctx, "DELETE", fmt.Sprintf("/cart/delete/%d/", lineID), nil, nil)
	})
}

func (c *Cart) fetch(ctx context.Context) ([]shop.CartLine, error) {
	var lines []shop.CartLine
	if err := c.client.Do(ctx, "GET", "/cart/", nil, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}
