// internal/models/cart_test.go
package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartItemsTotals(t *testing.T) {
	items := CartItems{
		{ProductID: uuid.New(), Name: "Hoodie", Price: 40, Quantity: 2},
		{ProductID: uuid.New(), Name: "Sticker", Price: 2.5, Quantity: 4},
	}

	assert.Equal(t, 90.0, items.Total())
	assert.Equal(t, 6, items.ItemCount())

	assert.Equal(t, 0.0, CartItems{}.Total())
	assert.Equal(t, 0, CartItems{}.ItemCount())
}

func TestCartItemsScanRoundTrip(t *testing.T) {
	items := CartItems{
		{ProductID: uuid.New(), Name: "Tee", Price: 19.99, Quantity: 1, Size: "M"},
	}

	value, err := items.Value()
	require.NoError(t, err)

	var decoded CartItems
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, items, decoded)
}

func TestCartItemsScanNil(t *testing.T) {
	var items CartItems
	require.NoError(t, items.Scan(nil))
	assert.Nil(t, items)
}

func TestCartTotalDelegates(t *testing.T) {
	cart := Cart{Items: CartItems{{Price: 10, Quantity: 3}}}
	assert.Equal(t, 30.0, cart.Total())
	assert.Equal(t, 3, cart.ItemCount())
}
