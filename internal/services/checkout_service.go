// internal/services/checkout_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"gorm.io/gorm"

	"github.com/sapphirus/sapphirus-backend/internal/config"
	"github.com/sapphirus/sapphirus-backend/internal/models"
)

var ErrCartEmpty = errors.New("cart is empty")

// CartChangedError aborts a checkout whose cart needed corrections. The
// client shows the notices and lets the customer re-confirm.
type CartChangedError struct {
	Result *ReconcileResult
}

func (e *CartChangedError) Error() string {
	return "cart changed during reconciliation"
}

type CheckoutService struct {
	db            *gorm.DB
	config        *config.Config
	carts         *CartService
	addresses     *AddressService
	payments      *PaymentService
	notifications *NotificationService
}

func NewCheckoutService(
	db *gorm.DB,
	cfg *config.Config,
	carts *CartService,
	addresses *AddressService,
	payments *PaymentService,
	notifications *NotificationService,
) *CheckoutService {
	return &CheckoutService{
		db:            db,
		config:        cfg,
		carts:         carts,
		addresses:     addresses,
		payments:      payments,
		notifications: notifications,
	}
}

type CheckoutRequest struct {
	AddressID *uuid.UUID `json:"address_id"`
}

type CheckoutResponse struct {
	Order        *models.Order `json:"order"`
	ClientSecret string        `json:"client_secret"`
}

// Checkout turns the user's cart into a pending order and opens a payment
// intent. Reconciliation runs first as a blocking precondition: any
// correction aborts with CartChangedError before money is involved, and
// any lookup failure aborts outright. The cart itself is only cleared
// when the payment succeeds.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*CheckoutResponse, error) {
	owner := UserCartOwner(userID)

	result, err := s.carts.ReconcileCart(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("cart reconciliation failed: %w", err)
	}
	if result.Changed {
		return nil, &CartChangedError{Result: result}
	}
	if len(result.Items) == 0 {
		return nil, ErrCartEmpty
	}

	var shippingAddress models.JSONB
	if req != nil && req.AddressID != nil {
		address, err := s.addresses.GetAddress(ctx, *req.AddressID, userID)
		if err != nil {
			return nil, err
		}
		shippingAddress = s.addresses.Snapshot(address)
	}

	order := &models.Order{
		UserID:          userID,
		Total:           result.Items.Total(),
		Currency:        s.config.Payment.Currency,
		Status:          models.OrderStatusPending,
		ShippingAddress: shippingAddress,
	}
	for _, item := range result.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
			Size:      item.Size,
			ImageURL:  item.ImageURL,
		})
	}

	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	intent, err := s.payments.CreatePaymentIntent(order.Total, order.Currency, map[string]string{
		"order_id": order.ID.String(),
		"user_id":  userID.String(),
	})
	if err != nil {
		// Without a payment intent the order can never complete; cancel it
		// so it does not linger as pending.
		now := time.Now()
		s.db.WithContext(ctx).Model(order).Updates(map[string]interface{}{
			"status":       models.OrderStatusCancelled,
			"cancelled_at": now,
		})
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(order).
		Update("payment_reference", intent.IntentID).Error; err != nil {
		return nil, fmt.Errorf("failed to save payment reference: %w", err)
	}
	order.PaymentReference = intent.IntentID

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.Total,
	}).Info("Checkout started")

	return &CheckoutResponse{
		Order:        order,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// HandleWebhook dispatches a verified Stripe event. Unhandled event types
// are acknowledged so Stripe stops retrying them.
func (s *CheckoutService) HandleWebhook(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return fmt.Errorf("failed to parse payment intent: %w", err)
		}
		return s.completeOrder(ctx, intent.ID)

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return fmt.Errorf("failed to parse payment intent: %w", err)
		}
		logrus.WithField("intent_id", intent.ID).Warn("Payment failed, order stays pending")
		return nil

	case "payment_intent.canceled":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return fmt.Errorf("failed to parse payment intent: %w", err)
		}
		return s.cancelOrderByPaymentRef(ctx, intent.ID)

	default:
		logrus.WithField("event_type", event.Type).Debug("Ignoring webhook event")
		return nil
	}
}

type oversoldLine struct {
	productID uuid.UUID
	name      string
	ordered   int
	available int
}

// completeOrder marks the paid order completed and decrements stock, all
// in one transaction. Each decrement is conditional on enough stock
// remaining; an order that raced past the stock is still completed, the
// remaining stock is drained to zero, and the shortfall is flagged for
// the back office. Payment already happened, so failing the order here
// would take money without recourse. Re-delivered events find the order
// already completed and do nothing.
func (s *CheckoutService) completeOrder(ctx context.Context, paymentRef string) error {
	var completed *models.Order
	var oversold []oversoldLine
	var lowStockIDs []uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Preload("Items").
			Where("payment_reference = ?", paymentRef).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Intent from another environment or a deleted order; ack it.
				logrus.WithField("intent_id", paymentRef).Warn("No order for payment intent")
				return nil
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		if order.Status != models.OrderStatusPending {
			return nil
		}

		for _, item := range order.Items {
			result := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity >= ?", item.ProductID, item.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to decrement stock: %w", result.Error)
			}

			if result.RowsAffected == 0 {
				var product models.Product
				if err := tx.First(&product, "id = ?", item.ProductID).Error; err == nil {
					oversold = append(oversold, oversoldLine{
						productID: item.ProductID,
						name:      item.Name,
						ordered:   item.Quantity,
						available: product.StockQuantity,
					})
					if err := tx.Model(&models.Product{}).
						Where("id = ?", item.ProductID).
						UpdateColumn("stock_quantity", gorm.Expr("GREATEST(stock_quantity - ?, 0)", item.Quantity)).Error; err != nil {
						return fmt.Errorf("failed to drain stock: %w", err)
					}
				}
			}

			if err := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("sales_count", gorm.Expr("sales_count + ?", item.Quantity)).Error; err != nil {
				return fmt.Errorf("failed to update sales count: %w", err)
			}

			var product models.Product
			if err := tx.Select("id", "stock_quantity").
				First(&product, "id = ?", item.ProductID).Error; err == nil {
				if product.StockQuantity <= s.config.Store.LowStockThreshold {
					lowStockIDs = append(lowStockIDs, product.ID)
				}
			}
		}

		now := time.Now()
		if err := tx.Model(&order).Updates(map[string]interface{}{
			"status":       models.OrderStatusCompleted,
			"processed_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to complete order: %w", err)
		}
		order.Status = models.OrderStatusCompleted
		order.ProcessedAt = &now

		// Empty the cart in place; the row is reused on the next add.
		if err := tx.Model(&models.Cart{}).
			Where("user_id = ?", order.UserID).
			Update("items", models.CartItems{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		completed = &order
		return nil
	})
	if err != nil {
		return err
	}

	if completed == nil {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"order_id":  completed.ID,
		"intent_id": paymentRef,
		"total":     completed.Total,
	}).Info("Order completed")

	s.sendCompletionNotifications(ctx, completed, oversold, lowStockIDs)
	return nil
}

func (s *CheckoutService) sendCompletionNotifications(ctx context.Context, order *models.Order, oversold []oversoldLine, lowStockIDs []uuid.UUID) {
	if s.notifications == nil {
		return
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", order.UserID).Error; err == nil {
		go s.notifications.SendOrderConfirmation(&user, order)
	}

	s.notifications.NotifyNewOrder(order)

	for _, line := range oversold {
		s.notifications.NotifyOversold(line.productID, line.name, line.ordered, line.available)
	}

	for _, productID := range lowStockIDs {
		var product models.Product
		if err := s.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err == nil {
			s.notifications.NotifyLowStock(&product)
		}
	}
}

func (s *CheckoutService) cancelOrderByPaymentRef(ctx context.Context, paymentRef string) error {
	var order models.Order
	err := s.db.WithContext(ctx).
		Where("payment_reference = ?", paymentRef).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load order: %w", err)
	}

	if order.Status != models.OrderStatusPending {
		return nil
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&order).Updates(map[string]interface{}{
		"status":       models.OrderStatusCancelled,
		"cancelled_at": now,
	}).Error; err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	logrus.WithField("order_id", order.ID).Info("Order cancelled by payment event")
	return nil
}
