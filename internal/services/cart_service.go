// internal/services/cart_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sapphirus/sapphirus-backend/internal/i18n"
	"github.com/sapphirus/sapphirus-backend/internal/models"
	"github.com/sapphirus/sapphirus-backend/internal/utils"
)

var (
	// ErrProductNotFound marks a catalog miss; reconciliation recovers from
	// it per line, every other lookup error fails the whole run.
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrItemNotInCart   = errors.New("item not in cart")
)

// ProductAvailability is what reconciliation needs to know about a product.
type ProductAvailability struct {
	StockQuantity int
	Price         float64
}

// ProductLookup resolves live stock and price for a product. Implementations
// return ErrProductNotFound for unknown or unsellable products.
type ProductLookup interface {
	Availability(ctx context.Context, productID uuid.UUID) (*ProductAvailability, error)
}

// CartStore reads and writes a whole cart under an owner key.
type CartStore interface {
	Load(ctx context.Context, key string) (models.CartItems, error)
	Save(ctx context.Context, key string, items models.CartItems) error
	Delete(ctx context.Context, key string) error
}

// CartOwner identifies whose cart is being operated on: an authenticated
// user's row, or a guest cart addressed by its opaque token.
type CartOwner struct {
	UserID     *uuid.UUID
	GuestToken string
}

func UserCartOwner(userID uuid.UUID) CartOwner {
	return CartOwner{UserID: &userID}
}

func GuestCartOwner(token string) CartOwner {
	return CartOwner{GuestToken: token}
}

type CartNoticeKind string

const (
	CartNoticeItemUnavailable CartNoticeKind = "item_unavailable"
	CartNoticeItemOutOfStock  CartNoticeKind = "item_out_of_stock"
	CartNoticeQuantityReduced CartNoticeKind = "quantity_reduced"
)

// CartNotice is a user-visible correction made during reconciliation.
type CartNotice struct {
	Kind      CartNoticeKind `json:"kind"`
	ProductID uuid.UUID      `json:"product_id"`
	Name      string         `json:"name"`
	Available int            `json:"available,omitempty"`
}

func (n CartNotice) Localize(lang string) string {
	switch n.Kind {
	case CartNoticeItemUnavailable:
		return i18n.T(lang, i18n.KeyCartItemUnavailable, n.Name)
	case CartNoticeItemOutOfStock:
		return i18n.T(lang, i18n.KeyCartItemOutOfStock, n.Name)
	case CartNoticeQuantityReduced:
		return i18n.T(lang, i18n.KeyCartQuantityReduced, n.Name, n.Available)
	}
	return i18n.T(lang, i18n.KeyCartAdjusted)
}

// ReconcileResult is the corrected cart plus everything the storefront
// needs to explain the corrections.
type ReconcileResult struct {
	Items   models.CartItems `json:"items"`
	Notices []CartNotice     `json:"notices"`
	Changed bool             `json:"changed"`
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	Size      string    `json:"size,omitempty"`
}

type UpdateItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=0"`
	Size      string    `json:"size,omitempty"`
}

type CartService struct {
	db         *gorm.DB
	guestCarts CartStore
}

func NewCartService(db *gorm.DB, guestCarts CartStore) *CartService {
	return &CartService{
		db:         db,
		guestCarts: guestCarts,
	}
}

// Reconcile corrects items against the live catalog. Lines are visited in
// order; survivors keep their relative order. A lookup failure other than
// a catalog miss aborts the run so stale data is never treated as in
// stock. Running it again on its own output is a no-op.
func Reconcile(ctx context.Context, items models.CartItems, lookup ProductLookup) (*ReconcileResult, error) {
	result := &ReconcileResult{
		Items:   make(models.CartItems, 0, len(items)),
		Notices: []CartNotice{},
	}

	for _, item := range items {
		availability, err := lookup.Availability(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				result.Notices = append(result.Notices, CartNotice{
					Kind:      CartNoticeItemUnavailable,
					ProductID: item.ProductID,
					Name:      item.Name,
				})
				result.Changed = true
				continue
			}
			return nil, fmt.Errorf("product lookup failed: %w", err)
		}

		if availability.StockQuantity <= 0 {
			result.Notices = append(result.Notices, CartNotice{
				Kind:      CartNoticeItemOutOfStock,
				ProductID: item.ProductID,
				Name:      item.Name,
			})
			result.Changed = true
			continue
		}

		if item.Quantity > availability.StockQuantity {
			item.Quantity = availability.StockQuantity
			result.Notices = append(result.Notices, CartNotice{
				Kind:      CartNoticeQuantityReduced,
				ProductID: item.ProductID,
				Name:      item.Name,
				Available: availability.StockQuantity,
			})
			result.Changed = true
		}

		// Price drift is corrected silently; the checkout total must be
		// computed from current prices.
		if item.Price != availability.Price {
			item.Price = availability.Price
			result.Changed = true
		}

		result.Items = append(result.Items, item)
	}

	return result, nil
}

// MergeCarts merges a guest cart into a user cart at sign-in. Remote lines
// keep their order, matching lines (same product and size) sum their
// quantities, and local-only lines are appended in their original order.
func MergeCarts(local, remote models.CartItems) models.CartItems {
	merged := make(models.CartItems, len(remote))
	copy(merged, remote)

	for _, item := range local {
		found := false
		for i := range merged {
			if merged[i].ProductID == item.ProductID && merged[i].Size == item.Size {
				merged[i].Quantity += item.Quantity
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, item)
		}
	}

	return merged
}

// ReconcileCart loads the owner's cart, reconciles it, and persists the
// corrected cart back to the same store when anything changed. This is the
// blocking precondition checkout runs before taking payment.
func (s *CartService) ReconcileCart(ctx context.Context, owner CartOwner) (*ReconcileResult, error) {
	items, err := s.loadItems(ctx, owner)
	if err != nil {
		return nil, err
	}

	result, err := Reconcile(ctx, items, s.Lookup())
	if err != nil {
		return nil, err
	}

	if result.Changed {
		if err := s.saveItems(ctx, owner, result.Items); err != nil {
			return nil, fmt.Errorf("failed to persist reconciled cart: %w", err)
		}
	}

	return result, nil
}

func (s *CartService) GetCart(ctx context.Context, owner CartOwner) (models.CartItems, error) {
	return s.loadItems(ctx, owner)
}

func (s *CartService) AddItem(ctx context.Context, owner CartOwner, req *AddItemRequest) (models.CartItems, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.ProductStatusActive).
		First(&product, "id = ?", req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if product.StockQuantity <= 0 {
		return nil, ErrOutOfStock
	}

	items, err := s.loadItems(ctx, owner)
	if err != nil {
		return nil, err
	}

	size := req.Size
	if size == "" {
		size = product.Size
	}

	merged := false
	for i := range items {
		if items[i].ProductID == req.ProductID && items[i].Size == size {
			items[i].Quantity += req.Quantity
			if items[i].Quantity > product.StockQuantity {
				items[i].Quantity = product.StockQuantity
			}
			items[i].Price = product.Price
			merged = true
			break
		}
	}

	if !merged {
		quantity := req.Quantity
		if quantity > product.StockQuantity {
			quantity = product.StockQuantity
		}
		item := models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
			Size:      size,
		}
		if len(product.Images) > 0 {
			item.ImageURL = product.Images[0]
		}
		items = append(items, item)
	}

	if err := s.saveItems(ctx, owner, items); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *CartService) UpdateItem(ctx context.Context, owner CartOwner, req *UpdateItemRequest) (models.CartItems, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	items, err := s.loadItems(ctx, owner)
	if err != nil {
		return nil, err
	}

	updated := make(models.CartItems, 0, len(items))
	found := false
	for _, item := range items {
		if item.ProductID == req.ProductID && item.Size == req.Size {
			found = true
			if req.Quantity == 0 {
				continue // quantity zero removes the line
			}
			item.Quantity = req.Quantity
		}
		updated = append(updated, item)
	}

	if !found {
		return nil, ErrItemNotInCart
	}

	if err := s.saveItems(ctx, owner, updated); err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *CartService) RemoveItem(ctx context.Context, owner CartOwner, productID uuid.UUID, size string) (models.CartItems, error) {
	items, err := s.loadItems(ctx, owner)
	if err != nil {
		return nil, err
	}

	updated := make(models.CartItems, 0, len(items))
	found := false
	for _, item := range items {
		if item.ProductID == productID && item.Size == size {
			found = true
			continue
		}
		updated = append(updated, item)
	}

	if !found {
		return nil, ErrItemNotInCart
	}

	if err := s.saveItems(ctx, owner, updated); err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *CartService) ClearCart(ctx context.Context, owner CartOwner) error {
	return s.saveItems(ctx, owner, models.CartItems{})
}

// MergeGuestCart folds a guest cart into the signed-in user's cart and
// deletes the guest copy so the two stores never both stay durable.
func (s *CartService) MergeGuestCart(ctx context.Context, userID uuid.UUID, guestToken string) (models.CartItems, error) {
	if guestToken == "" || s.guestCarts == nil {
		return s.loadItems(ctx, UserCartOwner(userID))
	}

	local, err := s.guestCarts.Load(ctx, guestToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load guest cart: %w", err)
	}

	owner := UserCartOwner(userID)
	remote, err := s.loadItems(ctx, owner)
	if err != nil {
		return nil, err
	}

	merged := MergeCarts(local, remote)
	if err := s.saveItems(ctx, owner, merged); err != nil {
		return nil, err
	}

	if err := s.guestCarts.Delete(ctx, guestToken); err != nil {
		return nil, fmt.Errorf("failed to drop guest cart: %w", err)
	}

	return merged, nil
}

// Lookup returns the catalog-backed ProductLookup used by reconciliation.
func (s *CartService) Lookup() ProductLookup {
	return &catalogLookup{db: s.db}
}

// catalogLookup resolves availability from the products table. Archived,
// draft and soft-deleted products count as not found.
type catalogLookup struct {
	db *gorm.DB
}

func (l *catalogLookup) Availability(ctx context.Context, productID uuid.UUID) (*ProductAvailability, error) {
	var product models.Product
	err := l.db.WithContext(ctx).
		Select("stock_quantity", "price").
		Where("status = ?", models.ProductStatusActive).
		First(&product, "id = ?", productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &ProductAvailability{
		StockQuantity: product.StockQuantity,
		Price:         product.Price,
	}, nil
}

func (s *CartService) loadItems(ctx context.Context, owner CartOwner) (models.CartItems, error) {
	if owner.UserID == nil {
		if s.guestCarts == nil {
			return nil, errors.New("guest cart store is not configured")
		}
		return s.guestCarts.Load(ctx, owner.GuestToken)
	}

	var cart models.Cart
	err := s.db.WithContext(ctx).Where("user_id = ?", *owner.UserID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CartItems{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if cart.Items == nil {
		return models.CartItems{}, nil
	}
	return cart.Items, nil
}

func (s *CartService) saveItems(ctx context.Context, owner CartOwner, items models.CartItems) error {
	if owner.UserID == nil {
		if s.guestCarts == nil {
			return errors.New("guest cart store is not configured")
		}
		return s.guestCarts.Save(ctx, owner.GuestToken, items)
	}

	var cart models.Cart
	err := s.db.WithContext(ctx).Where("user_id = ?", *owner.UserID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: *owner.UserID, Items: items}
		if err := s.db.WithContext(ctx).Create(&cart).Error; err != nil {
			return fmt.Errorf("failed to create cart: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	cart.Items = items
	if err := s.db.WithContext(ctx).Save(&cart).Error; err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
