package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopfront/client/internal/domain/shop"
)

func TestCart_LoadWithoutSessionClears(t *testing.T) {
	f := newFixture(t)
	cart := NewCart(f.client, f.sessions, zap.NewNop())

	require.NoError(t, cart.Load(context.Background()))
	assert.Equal(t, StateEmpty, cart.State())
	assert.Empty(t, cart.Lines())
	assert.Zero(t, f.backend.cartFetches)
}

func TestCart_AddWritesOnceThenReloads(t *testing.T) {
	f := newFixture(t)
	cart := NewCart(f.client, f.sessions, zap.NewNop())
	f.signIn(t, 1)
	fetchesBefore := f.backend.cartFetches

	err := cart.Add(context.Background(), shop.AddToCartInput{ProductID: 1, Size: "M", Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, f.backend.cartWrites)
	assert.Equal(t, fetchesBefore+1, f.backend.cartFetches)

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(1), lines[0].ProductID)
	assert.Equal(t, int64(2), lines[0].Quantity)
	assert.Equal(t, "Plain Tee", lines[0].ProductName)
}

func TestCart_AddSameProductSumsOnServer(t *testing.T) {
	f := newFixture(t)
	cart := NewCart(f.client, f.sessions, zap.NewNop())
	f.signIn(t, 1)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, shop.AddToCartInput{ProductID: 1, Size: "M", Quantity: 2}))
	require.NoError(t, cart.Add(ctx, shop.AddToCartInput{ProductID: 1, Size: "M", Quantity: 3}))

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(5), lines[0].Quantity)
}

func TestCart_RejectedAddLeavesCartUntouched(t *testing.T) {
	f := newFixture(t)
	cart := NewCart(f.client, f.sessions, zap.NewNop())
	f.signIn(t, 1)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, shop.AddToCartInput{ProductID: 1, Size: "M", Quantity: 1}))
	before := cart.Lines()
	fetchesBefore := f.backend.cartFetches

	f.backend.rejectWrites = true
	err := cart.Add(ctx, shop.AddToCartInput{ProductID: 2, Size: "L", Quantity: 1})
	assert.Error(t, err)

	// No speculative local change and no reload after a rejected write.
	assert.Equal(t, before, cart.Lines())
	assert.Equal(t, fetchesBefore, f.backend.cartFetches)
	assert.Equal(t, StateReady, cart.State())
}

func TestCart_UpdateQuantityServerAuthoritative(t *testing.T) {
	f := newFixture(t)
	cart := NewCart(f.client, f.sessions, zap.NewNop())
	f.signIn(t, 1)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, shop.AddToCartInput{ProductID: 1, Size: "M", Quantity: 1}))
	lineID := cart.Lines()[0].ID
	writesBefore := f.backend.cartWrites

	require.NoError(t, cart.UpdateQuantity(ctx, lineID, 3))

	// Exactly one write intent, and the rendered quantity is the server's.
	assert.Equal(t, writesBefore+1, f.backend.cartWrites)
	assert.Equal(t, int64(3), cart.Lines()[0].Quantity)
}

func TestCart_UpdateQuantityRejectsNonPositive(t *testing.T) {
	f := newFixture(t)
	cart := NewCart(f.client, f.sessions, zap.NewNop())
	f.signIn(t, 1)

	err := cart.UpdateQuantity(context.Background(), 1, 0)
	assert.ErrorIs(t, err, shop.ErrInvalidQuantity)
	assert.Zero(t, f.backend.cartWrites)
}

func TestCart_AddValidatesInput(t *testing.T) {
	f := newFixture(t)
	cart := NewCart(f.client, f.sessions, zap.NewNop())
	f.signIn(t, 1)

	err := cart.Add(context.Background(), shop.AddToCartInput{ProductID: 1, Size: "", Quantity: 1})
	assert.ErrorIs(t, err, shop.ErrInvalidInput)
	assert.Zero(t, f.backend.cartWrites)
}

func TestCart_RemoveLine(t *testing.T) {
	f := newFixture(t)
	cart := NewCart(f.client, f.sessions, zap.NewNop())
	f.signIn(t, 1)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, shop.AddToCartInput{ProductID: 1, Size: "M", Quantity: 1}))
	require.NoError(t, cart.Remove(ctx, cart.Lines()[0].ID))
	assert.Empty(t, cart.Lines())
}

func TestCart_Subtotal(t *testing.T) {
	f := newFixture(t)
	cart := NewCart(f.client, f.sessions, zap.NewNop())
	f.signIn(t, 1)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, shop.AddToCartInput{ProductID: 1, Size: "M", Quantity: 2})) // 2 x 20
	require.NoError(t, cart.Add(ctx, shop.AddToCartInput{ProductID: 2, Size: "L", Quantity: 1})) // 1 x 45

	assert.True(t, cart.Subtotal().Equal(decimal.NewFromInt(85)))
}

func TestCart_ClearsOnLogout(t *testing.T) {
	f := newFixture(t)
	cart := NewCart(f.client, f.sessions, zap.NewNop())
	f.signIn(t, 1)
	require.NoError(t, cart.Add(context.Background(), shop.AddToCartInput{ProductID: 1, Size: "M", Quantity: 1}))
	require.NotEmpty(t, cart.Lines())

	f.sessions.Clear()
	assert.Empty(t, cart.Lines())
	assert.Equal(t, StateEmpty, cart.State())
}

func TestCart_ScopedToAccount(t *testing.T) {
	f := newFixture(t)
	cart := NewCart(f.client, f.sessions, zap.NewNop())
	ctx := context.Background()

	f.signIn(t, 1)
	require.NoError(t, cart.Add(ctx, shop.AddToCartInput{ProductID: 1, Size: "M", Quantity: 2}))
	f.sessions.Clear()

	// A different account must never see the first account's lines.
	f.signIn(t, 2)
	assert.Empty(t, cart.Lines())

	require.NoError(t, cart.Add(ctx, shop.AddToCartInput{ProductID: 2, Size: "L", Quantity: 1}))
	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].ProductID)
}
