package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tomatoes = Product{ID: 1, Name: "Tomatoes", PriceCents: 1000, StallID: 7}
	peppers  = Product{ID: 2, Name: "Peppers", PriceCents: 650, StallID: 7}
	honey    = Product{ID: 3, Name: "Honey", PriceCents: 2500, StallID: 9}
)

// memStore records every Save so tests can check the persistence
// contract without touching disk.
type memStore struct {
	saved *State
	saves int
}

func (m *memStore) Save(state *State) error { m.saved = state; m.saves++; return nil }
func (m *memStore) Load() (*State, error)   { return m.saved, nil }

// checkInvariant asserts the single-stall rule at an observation
// point: empty cart with stall 0, or every item on the cart's stall.
func checkInvariant(t *testing.T, c *Cart) {
	t.Helper()
	items := c.Items()
	if len(items) == 0 {
		assert.Zero(t, c.StallID())
		return
	}
	for _, it := range items {
		assert.Equal(t, c.StallID(), it.Product.StallID)
	}
}

func newEmptyCart(t *testing.T) *Cart {
	t.Helper()
	c, err := New(nil)
	require.NoError(t, err)
	return c
}

func TestAddItemBindsStallAndAccumulates(t *testing.T) {
	c := newEmptyCart(t)

	require.NoError(t, c.AddItem(tomatoes, 2))
	assert.Equal(t, uint64(7), c.StallID())
	assert.Equal(t, uint64(2000), c.Total())
	assert.Equal(t, uint32(2), c.ItemCount())
	assert.True(t, c.Open)

	// Same product again: the line accumulates, no second line appears.
	require.NoError(t, c.AddItem(tomatoes, 3))
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, uint32(5), items[0].Quantity)

	// A second product from the same stall is fine.
	require.NoError(t, c.AddItem(peppers, 1))
	assert.Len(t, c.Items(), 2)
	checkInvariant(t, c)
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	c := newEmptyCart(t)
	require.NoError(t, c.AddItem(tomatoes, 0))
	assert.Equal(t, uint32(1), c.ItemCount())
}

func TestAddItemFromOtherStallConflicts(t *testing.T) {
	c := newEmptyCart(t)
	require.NoError(t, c.AddItem(tomatoes, 2))
	require.NoError(t, c.AddItem(peppers, 1))

	err := c.AddItem(honey, 1)
	var conflict *StallConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, uint64(7), conflict.CartStallID)
	assert.Equal(t, uint64(9), conflict.ProductStallID)

	// State from before the rejected add is fully intact.
	assert.Len(t, c.Items(), 2)
	assert.Equal(t, uint64(7), c.StallID())
	assert.Equal(t, uint32(3), c.ItemCount())
	checkInvariant(t, c)
}

func TestRemoveLastItemUnbindsStall(t *testing.T) {
	c := newEmptyCart(t)
	require.NoError(t, c.AddItem(tomatoes, 2))
	require.NoError(t, c.RemoveItem(tomatoes.ID))

	assert.Empty(t, c.Items())
	assert.Zero(t, c.StallID())

	// The cart accepts another stall now.
	require.NoError(t, c.AddItem(honey, 1))
	assert.Equal(t, uint64(9), c.StallID())
	checkInvariant(t, c)
}

func TestRemoveUnknownItemIsNoop(t *testing.T) {
	c := newEmptyCart(t)
	require.NoError(t, c.AddItem(tomatoes, 2))
	require.NoError(t, c.RemoveItem(999))
	assert.Equal(t, uint32(2), c.ItemCount())
}

func TestUpdateQuantityReplacesInPlace(t *testing.T) {
	c := newEmptyCart(t)
	require.NoError(t, c.AddItem(tomatoes, 2))

	require.NoError(t, c.UpdateQuantity(tomatoes.ID, 6))
	assert.Equal(t, uint32(6), c.ItemCount())
	assert.Equal(t, uint64(6000), c.Total())
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	c := newEmptyCart(t)
	require.NoError(t, c.AddItem(tomatoes, 2))

	require.NoError(t, c.UpdateQuantity(tomatoes.ID, 0))
	assert.Empty(t, c.Items())
	assert.Zero(t, c.StallID())
}

func TestUpdateQuantityNeverCreatesLines(t *testing.T) {
	c := newEmptyCart(t)
	require.NoError(t, c.UpdateQuantity(tomatoes.ID, 4))
	assert.Empty(t, c.Items())
}

func TestClear(t *testing.T) {
	c := newEmptyCart(t)
	require.NoError(t, c.AddItem(tomatoes, 2))
	require.NoError(t, c.Clear())
	assert.Empty(t, c.Items())
	assert.Zero(t, c.StallID())
	assert.Zero(t, c.Total())
}

func TestExampleScenario(t *testing.T) {
	// empty → AddItem(stall A, price 10, qty 2) → totals bound to A,
	// then UpdateQuantity(0) empties the cart and unbinds the stall.
	c := newEmptyCart(t)
	p := Product{ID: 1, Name: "Eggs", PriceCents: 10, StallID: 4}

	require.NoError(t, c.AddItem(p, 2))
	assert.Equal(t, uint64(20), c.Total())
	assert.Equal(t, uint32(2), c.ItemCount())
	assert.Equal(t, uint64(4), c.StallID())

	require.NoError(t, c.UpdateQuantity(1, 0))
	assert.Empty(t, c.Items())
	assert.Zero(t, c.StallID())
}

func TestInvariantHoldsAcrossMutationSequence(t *testing.T) {
	c := newEmptyCart(t)
	steps := []func() error{
		func() error { return c.AddItem(tomatoes, 1) },
		func() error { return c.AddItem(peppers, 4) },
		func() error { return c.UpdateQuantity(peppers.ID, 2) },
		func() error { return c.AddItem(honey, 1) }, // conflict, state untouched
		func() error { return c.RemoveItem(tomatoes.ID) },
		func() error { return c.RemoveItem(peppers.ID) },
		func() error { return c.AddItem(honey, 3) },
		func() error { return c.Clear() },
	}
	for _, step := range steps {
		_ = step()
		checkInvariant(t, c)
	}
}

func TestEveryMutationPersistsFullState(t *testing.T) {
	store := &memStore{}
	c, err := New(store)
	require.NoError(t, err)

	require.NoError(t, c.AddItem(tomatoes, 2))
	assert.Equal(t, 1, store.saves)
	require.NotNil(t, store.saved)
	assert.Equal(t, uint64(7), store.saved.StallID)
	require.Len(t, store.saved.Items, 1)

	require.NoError(t, c.UpdateQuantity(tomatoes.ID, 5))
	assert.Equal(t, 2, store.saves)
	assert.Equal(t, uint32(5), store.saved.Items[0].Quantity)

	require.NoError(t, c.Clear())
	assert.Equal(t, 3, store.saves)
	assert.Empty(t, store.saved.Items)
	assert.Zero(t, store.saved.StallID)
}

func TestRejectedAddDoesNotPersist(t *testing.T) {
	store := &memStore{}
	c, err := New(store)
	require.NoError(t, err)

	require.NoError(t, c.AddItem(tomatoes, 1))
	saves := store.saves

	err = c.AddItem(honey, 1)
	var conflict *StallConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, saves, store.saves)
}

func TestNewRestoresPersistedState(t *testing.T) {
	store := &memStore{}
	c, err := New(store)
	require.NoError(t, err)
	require.NoError(t, c.AddItem(tomatoes, 2))
	require.NoError(t, c.AddItem(peppers, 1))

	restored, err := New(store)
	require.NoError(t, err)
	assert.Equal(t, c.Items(), restored.Items())
	assert.Equal(t, c.StallID(), restored.StallID())
	assert.Equal(t, c.Total(), restored.Total())
	// Presentation state is not persisted.
	assert.False(t, restored.Open)
}

func TestCheckoutSerializesState(t *testing.T) {
	c := newEmptyCart(t)
	require.NoError(t, c.AddItem(tomatoes, 2))
	require.NoError(t, c.AddItem(peppers, 3))

	req := c.Checkout()
	assert.Equal(t, uint64(7), req.StallID)
	require.Len(t, req.Items, 2)
	assert.Equal(t, CheckoutItem{ProductID: 1, Quantity: 2}, req.Items[0])
	assert.Equal(t, CheckoutItem{ProductID: 2, Quantity: 3}, req.Items[1])

	// Checkout does not clear the cart.
	assert.Equal(t, uint32(5), c.ItemCount())
}
