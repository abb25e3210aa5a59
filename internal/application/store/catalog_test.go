package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopfront/client/internal/infrastructure/api"
)

func TestCatalog_LoadsAnonymously(t *testing.T) {
	f := newFixture(t)
	catalog := NewCatalog(f.client, f.sessions, zap.NewNop())

	require.NoError(t, catalog.Load(context.Background()))
	assert.Equal(t, StateReady, catalog.State())
	assert.Len(t, catalog.Products(), 2)
}

func TestCatalog_SearchFilters(t *testing.T) {
	f := newFixture(t)
	catalog := NewCatalog(f.client, f.sessions, zap.NewNop())

	page, err := catalog.Search(context.Background(), ProductFilter{Category: "men"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Plain Tee", page.Results[0].Name)
}

func TestCatalog_Get(t *testing.T) {
	f := newFixture(t)
	catalog := NewCatalog(f.client, f.sessions, zap.NewNop())

	product, err := catalog.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Hoodie", product.Name)
	assert.True(t, product.HasSize("m"))

	_, err = catalog.Get(context.Background(), 999)
	assert.True(t, api.IsNotFound(err))
}

func TestCatalog_ClearsOnLogout(t *testing.T) {
	f := newFixture(t)
	catalog := NewCatalog(f.client, f.sessions, zap.NewNop())

	f.signIn(t, 1)
	require.NotEmpty(t, catalog.Products())

	// Even the public catalog does not outlive the session that loaded it;
	// the next view mount reloads it.
	f.sessions.Clear()
	assert.Empty(t, catalog.Products())
	assert.Equal(t, StateEmpty, catalog.State())

	require.NoError(t, catalog.Load(context.Background()))
	assert.Len(t, catalog.Products(), 2)
}
