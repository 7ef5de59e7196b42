package boltstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piataonline/market-api/internal/cart"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cart_test.db")
	store, err := New(dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func TestLoadBeforeSaveReturnsNil(t *testing.T) {
	store := createTestStore(t)
	state, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := createTestStore(t)

	state := &cart.State{
		StallID: 7,
		Items: []cart.Item{
			{
				ID:       "line-1",
				Product:  cart.Product{ID: 1, Name: "Tomatoes", PriceCents: 1000, StallID: 7, ImageURL: "https://img/t.png"},
				Quantity: 2,
			},
			{
				ID:       "line-2",
				Product:  cart.Product{ID: 2, Name: "Peppers", PriceCents: 650, StallID: 7},
				Quantity: 1,
			},
		},
	}
	require.NoError(t, store.Save(state))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestSaveOverwritesPreviousState(t *testing.T) {
	store := createTestStore(t)

	require.NoError(t, store.Save(&cart.State{StallID: 7, Items: []cart.Item{{ID: "a", Quantity: 1}}}))
	require.NoError(t, store.Save(&cart.State{StallID: 0}))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Zero(t, got.StallID)
	assert.Empty(t, got.Items)
}

func TestStateSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cart_test.db")

	store, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Save(&cart.State{StallID: 9, Items: []cart.Item{{ID: "x", Quantity: 3}}}))
	require.NoError(t, store.Close())

	reopened, err := New(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(9), got.StallID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, uint32(3), got.Items[0].Quantity)
}

func TestCartOverBoltStore(t *testing.T) {
	store := createTestStore(t)

	c, err := cart.New(store)
	require.NoError(t, err)
	require.NoError(t, c.AddItem(cart.Product{ID: 1, Name: "Honey", PriceCents: 2500, StallID: 9}, 2))

	restored, err := cart.New(store)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), restored.StallID())
	assert.Equal(t, uint64(5000), restored.Total())
}
