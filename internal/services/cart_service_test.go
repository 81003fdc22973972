// internal/services/cart_service_test.go
package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sapphirus/sapphirus-backend/internal/models"
)

// fakeLookup serves availability from a map; unknown IDs are a catalog miss.
type fakeLookup struct {
	products map[uuid.UUID]ProductAvailability
	err      error
	calls    int
}

func (f *fakeLookup) Availability(ctx context.Context, productID uuid.UUID) (*ProductAvailability, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	availability, ok := f.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &availability, nil
}

// fakeCartStore keeps carts in a map, standing in for the Redis store.
type fakeCartStore struct {
	carts map[string]models.CartItems
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: make(map[string]models.CartItems)}
}

func (f *fakeCartStore) Load(ctx context.Context, key string) (models.CartItems, error) {
	items, ok := f.carts[key]
	if !ok {
		return models.CartItems{}, nil
	}
	return items, nil
}

func (f *fakeCartStore) Save(ctx context.Context, key string, items models.CartItems) error {
	f.carts[key] = items
	return nil
}

func (f *fakeCartStore) Delete(ctx context.Context, key string) error {
	delete(f.carts, key)
	return nil
}

func item(id uuid.UUID, name string, price float64, qty int, size string) models.CartItem {
	return models.CartItem{
		ProductID: id,
		Name:      name,
		Price:     price,
		Quantity:  qty,
		Size:      size,
	}
}

func TestReconcileClampsQuantityAndRefreshesPrice(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()

	lookup := &fakeLookup{products: map[uuid.UUID]ProductAvailability{
		productA: {StockQuantity: 2, Price: 12},
		productB: {StockQuantity: 10, Price: 5},
	}}

	items := models.CartItems{
		item(productA, "Sapphire Hoodie", 10, 3, "M"),
		item(productB, "Sticker Pack", 5, 1, ""),
	}

	result, err := Reconcile(context.Background(), items, lookup)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	require.Len(t, result.Items, 2)

	// Quantity clamped to available stock, price refreshed to current.
	assert.Equal(t, 2, result.Items[0].Quantity)
	assert.Equal(t, 12.0, result.Items[0].Price)

	// Untouched line survives as-is.
	assert.Equal(t, items[1], result.Items[1])

	require.Len(t, result.Notices, 1)
	assert.Equal(t, CartNoticeQuantityReduced, result.Notices[0].Kind)
	assert.Equal(t, productA, result.Notices[0].ProductID)
	assert.Equal(t, 2, result.Notices[0].Available)
}

func TestReconcileDropsUnknownProduct(t *testing.T) {
	known := uuid.New()
	gone := uuid.New()

	lookup := &fakeLookup{products: map[uuid.UUID]ProductAvailability{
		known: {StockQuantity: 5, Price: 20},
	}}

	items := models.CartItems{
		item(gone, "Discontinued Tee", 15, 1, "L"),
		item(known, "Canvas Tote", 20, 2, ""),
	}

	result, err := Reconcile(context.Background(), items, lookup)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	require.Len(t, result.Items, 1)
	assert.Equal(t, known, result.Items[0].ProductID)

	require.Len(t, result.Notices, 1)
	assert.Equal(t, CartNoticeItemUnavailable, result.Notices[0].Kind)
	assert.Equal(t, "Discontinued Tee", result.Notices[0].Name)
}

func TestReconcileDropsOutOfStockProduct(t *testing.T) {
	productID := uuid.New()

	lookup := &fakeLookup{products: map[uuid.UUID]ProductAvailability{
		productID: {StockQuantity: 0, Price: 30},
	}}

	result, err := Reconcile(context.Background(), models.CartItems{
		item(productID, "Limited Print", 30, 1, ""),
	}, lookup)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Empty(t, result.Items)
	require.Len(t, result.Notices, 1)
	assert.Equal(t, CartNoticeItemOutOfStock, result.Notices[0].Kind)
}

func TestReconcileRefreshesPriceSilently(t *testing.T) {
	productID := uuid.New()

	lookup := &fakeLookup{products: map[uuid.UUID]ProductAvailability{
		productID: {StockQuantity: 5, Price: 18},
	}}

	result, err := Reconcile(context.Background(), models.CartItems{
		item(productID, "Mug", 15, 2, ""),
	}, lookup)
	require.NoError(t, err)

	// Price drift marks the cart changed but emits no notice.
	assert.True(t, result.Changed)
	assert.Equal(t, 18.0, result.Items[0].Price)
	assert.Equal(t, 2, result.Items[0].Quantity)
	assert.Empty(t, result.Notices)
}

func TestReconcileFailsClosedOnLookupError(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("connection refused")}

	result, err := Reconcile(context.Background(), models.CartItems{
		item(uuid.New(), "Anything", 10, 1, ""),
	}, lookup)

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestReconcileEmptyCartIsNoop(t *testing.T) {
	lookup := &fakeLookup{}

	result, err := Reconcile(context.Background(), models.CartItems{}, lookup)
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Empty(t, result.Items)
	assert.Empty(t, result.Notices)
	assert.Zero(t, lookup.calls)
}

func TestReconcileIsIdempotent(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()

	lookup := &fakeLookup{products: map[uuid.UUID]ProductAvailability{
		productA: {StockQuantity: 1, Price: 9},
		productB: {StockQuantity: 4, Price: 7},
	}}

	first, err := Reconcile(context.Background(), models.CartItems{
		item(productA, "Pin", 8, 3, ""),
		item(productB, "Patch", 7, 2, ""),
	}, lookup)
	require.NoError(t, err)
	require.True(t, first.Changed)

	second, err := Reconcile(context.Background(), first.Items, lookup)
	require.NoError(t, err)

	assert.False(t, second.Changed)
	assert.Empty(t, second.Notices)
	assert.Equal(t, first.Items, second.Items)
}

func TestReconcilePreservesLineOrder(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	lookup := &fakeLookup{products: map[uuid.UUID]ProductAvailability{
		ids[0]: {StockQuantity: 5, Price: 1},
		ids[2]: {StockQuantity: 5, Price: 3},
	}}

	result, err := Reconcile(context.Background(), models.CartItems{
		item(ids[0], "First", 1, 1, ""),
		item(ids[1], "Second", 2, 1, ""),
		item(ids[2], "Third", 3, 1, ""),
	}, lookup)
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, ids[0], result.Items[0].ProductID)
	assert.Equal(t, ids[2], result.Items[1].ProductID)
}

func TestMergeCartsSumsMatchingLines(t *testing.T) {
	shared := uuid.New()
	localOnly := uuid.New()
	remoteOnly := uuid.New()

	local := models.CartItems{
		item(shared, "Hoodie", 40, 1, "M"),
		item(localOnly, "Cap", 12, 2, ""),
	}
	remote := models.CartItems{
		item(remoteOnly, "Scarf", 25, 1, ""),
		item(shared, "Hoodie", 40, 2, "M"),
	}

	merged := MergeCarts(local, remote)

	require.Len(t, merged, 3)
	// Remote lines keep their order, local-only lines append after.
	assert.Equal(t, remoteOnly, merged[0].ProductID)
	assert.Equal(t, shared, merged[1].ProductID)
	assert.Equal(t, 3, merged[1].Quantity)
	assert.Equal(t, localOnly, merged[2].ProductID)
}

func TestMergeCartsTreatsSizesAsDistinctLines(t *testing.T) {
	productID := uuid.New()

	local := models.CartItems{item(productID, "Tee", 20, 1, "S")}
	remote := models.CartItems{item(productID, "Tee", 20, 1, "M")}

	merged := MergeCarts(local, remote)

	require.Len(t, merged, 2)
	assert.Equal(t, "M", merged[0].Size)
	assert.Equal(t, "S", merged[1].Size)
}

func TestMergeCartsWithEmptySides(t *testing.T) {
	productID := uuid.New()
	items := models.CartItems{item(productID, "Tee", 20, 1, "")}

	assert.Equal(t, items, MergeCarts(items, models.CartItems{}))
	assert.Equal(t, items, MergeCarts(models.CartItems{}, items))
	assert.Empty(t, MergeCarts(models.CartItems{}, models.CartItems{}))
}

func TestCartServiceReadsAndWritesGuestCartsThroughStore(t *testing.T) {
	store := newFakeCartStore()
	svc := NewCartService(nil, store)
	owner := GuestCartOwner("guest-token")

	store.carts["guest-token"] = models.CartItems{
		item(uuid.New(), "Tote", 20, 1, ""),
	}

	items, err := svc.GetCart(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Tote", items[0].Name)

	require.NoError(t, svc.ClearCart(context.Background(), owner))
	assert.Empty(t, store.carts["guest-token"])
}

func TestMergeCartsDoesNotMutateInputs(t *testing.T) {
	shared := uuid.New()

	local := models.CartItems{item(shared, "Hoodie", 40, 1, "")}
	remote := models.CartItems{item(shared, "Hoodie", 40, 2, "")}

	_ = MergeCarts(local, remote)

	assert.Equal(t, 1, local[0].Quantity)
	assert.Equal(t, 2, remote[0].Quantity)
}
