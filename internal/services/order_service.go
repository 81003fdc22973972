// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sapphirus/sapphirus-backend/internal/models"
	"github.com/sapphirus/sapphirus-backend/internal/utils"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderNotCancelable = errors.New("order can no longer be cancelled")
)

type OrderService struct {
	db       *gorm.DB
	payments *PaymentService
}

func NewOrderService(db *gorm.DB, payments *PaymentService) *OrderService {
	return &OrderService{
		db:       db,
		payments: payments,
	}
}

// GetOrders lists the caller's own orders, newest first.
func (s *OrderService) GetOrders(ctx context.Context, userID uuid.UUID, status string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSorts := []string{"created_at", "total", "status"}
	query = utils.ApplySort(query, params, allowedSorts)
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Preload("Items").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	result := utils.CreatePaginationResult(orders, total, params)
	return &result, nil
}

// GetOrder returns one order, scoped to its owner.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

// CancelOrder cancels a still-pending order and voids its payment intent.
// Completed orders go through the refund flow instead.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusPending {
		return nil, ErrOrderNotCancelable
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.OrderStatusCancelled,
		"cancelled_at": now,
	}
	if err := s.db.WithContext(ctx).Model(order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	if order.PaymentReference != "" && s.payments != nil {
		if err := s.payments.CancelPaymentIntent(order.PaymentReference); err != nil {
			// The intent may already be cancelled or expired on Stripe's side.
			logrus.WithError(err).WithField("order_id", order.ID).Warn("Failed to cancel payment intent")
		}
	}

	order.Status = models.OrderStatusCancelled
	order.CancelledAt = &now
	return order, nil
}
