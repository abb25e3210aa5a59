package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shopfront/client/internal/domain/session"
	"github.com/shopfront/client/internal/domain/shop"
	"github.com/shopfront/client/internal/infrastructure/api"
	"github.com/shopfront/client/internal/infrastructure/sessionstore"
)

// Wishlist owns the server-backed wishlist, a set keyed by product ID.
// Toggle flips membership with exactly one write per call, so toggling twice
// returns the set to its original state.
type Wishlist struct {
	col      *Collection[shop.WishlistEntry]
	client   *api.Client
	sessions *sessionstore.Store
	log      *zap.Logger
}

// NewWishlist creates the wishlist store bound to the session lifecycle.
func NewWishlist(client *api.Client, sessions *sessionstore.Store, log *zap.Logger) *Wishlist {
	w := &Wishlist{
		client:   client,
		sessions: sessions,
		log:      log.Named("wishlist"),
	}
	w.col = NewCollection("wishlist", w.fetch, log)
	sessions.Watch(func(s *session.Session) {
		if s == nil {
			w.col.Clear()
			return
		}
		if err := w.col.Load(context.Background()); err != nil {
			w.log.Warn("wishlist resync after session change failed", zap.Error(err))
		}
	})
	return w
}

// Load fetches the wishlist for the current session; clears when anonymous.
func (w *Wishlist) Load(ctx context.Context) error {
	if w.sessions.Current() == nil {
		w.col.Clear()
		return nil
	}
	return w.col.Load(ctx)
}

// Entries returns a copy of the current wishlist entries.
func (w *Wishlist) Entries() []shop.WishlistEntry {
	return w.col.Items()
}

// State returns the wishlist's lifecycle state.
func (w *Wishlist) State() State {
	return w.col.State()
}

// Contains reports membership of productID. Idempotent, purely local.
func (w *Wishlist) Contains(productID int64) bool {
	return shop.WishlistContains(w.col.Items(), productID)
}

// Toggle flips membership of productID and reports whether the product is on
// the wishlist afterwards. A present entry issues one delete; an absent one
// issues one add.
func (w *Wishlist) Toggle(ctx context.Context, productID int64) (bool, error) {
	if w.Contains(productID) {
		err := w.col.Mutate(ctx, func(ctx context.Context) error {
			return w.client.Do(ctx, "DELETE", fmt.Sprintf("/wishlist/delete/%d/", productID), nil, nil)
		})
		return false, err
	}
	err := w.col.Mutate(ctx, func(ctx context.Context) error {
		body := map[string]int64{"product_id": productID}
		return w.client.Do(ctx, "POST", "/wishlist/add/", body, nil)
	})
	return err == nil, err
}

func (w *Wishlist) fetch(ctx context.Context) ([]shop.WishlistEntry, error) {
	var entries []shop.WishlistEntry
	if err := w.client.Do(ctx, "GET", "/wishlist/", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
