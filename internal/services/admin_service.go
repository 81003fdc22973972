// internal/services/admin_service.go
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
	ErrSettingNotFound      = errors.New("setting not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrOrderNotRefundable   = errors.New("order is not refundable")
)

type AdminService struct {
	db            *gorm.DB
	payments      *PaymentService
	notifications *NotificationService
}

func NewAdminService(db *gorm.DB, payments *PaymentService, notifications *NotificationService) *AdminService {
	return &AdminService{
		db:            db,
		payments:      payments,
		notifications: notifications,
	}
}

type DashboardStats struct {
	TotalUsers    int64   `json:"total_users"`
	TotalProducts int64   `json:"total_products"`
	TotalOrders   int64   `json:"total_orders"`
	PendingOrders int64   `json:"pending_orders"`
	Revenue       float64 `json:"revenue"`
	RevenueToday  float64 `json:"revenue_today"`
	LowStockCount int64   `json:"low_stock_count"`
	UnreadAlerts  int64   `json:"unread_alerts"`
	NewUsersWeek  int64   `json:"new_users_week"`
	OrdersWeek    int64   `json:"orders_week"`
}

func (s *AdminService) GetDashboardStats(ctx context.Context, lowStockThreshold int) (*DashboardStats, error) {
	stats := &DashboardStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if err := db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusPending).
		Count(&stats.PendingOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending orders: %w", err)
	}

	db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusCompleted).
		Select("COALESCE(SUM(total), 0)").
		Scan(&stats.Revenue)

	today := time.Now().Truncate(24 * time.Hour)
	db.Model(&models.Order{}).
		Where("status = ? AND processed_at >= ?", models.OrderStatusCompleted, today).
		Select("COALESCE(SUM(total), 0)").
		Scan(&stats.RevenueToday)

	db.Model(&models.Product{}).
		Where("status = ? AND stock_quantity <= ?", models.ProductStatusActive, lowStockThreshold).
		Count(&stats.LowStockCount)

	db.Model(&models.AdminNotification{}).
		Where("status = ?", "unread").
		Count(&stats.UnreadAlerts)

	weekAgo := time.Now().AddDate(0, 0, -7)
	db.Model(&models.User{}).Where("created_at >= ?", weekAgo).Count(&stats.NewUsersWeek)
	db.Model(&models.Order{}).Where("created_at >= ?", weekAgo).Count(&stats.OrdersWeek)

	return stats, nil
}

func (s *AdminService) GetUsers(ctx context.Context, role, status string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})

	if role != "" {
		query = query.Where("role = ?", role)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?", search, search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	allowedSorts := []string{"created_at", "email", "last_login_at"}
	query = utils.ApplySort(query, params, allowedSorts)
	query = utils.ApplyPagination(query, params)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	result := utils.CreatePaginationResult(users, total, params)
	return &result, nil
}

type UpdateUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended banned"`
	Reason string `json:"reason" validate:"max=500"`
}

func (s *AdminService) UpdateUserStatus(ctx context.Context, userID uuid.UUID, req *UpdateUserStatusRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).
		Update("status", req.Status).Error; err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"status":  req.Status,
		"reason":  req.Reason,
	}).Info("User status updated")

	user.Status = models.UserStatus(req.Status)
	return &user, nil
}

func (s *AdminService) GetOrders(ctx context.Context, status string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})

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
	if err := query.Preload("Items").Preload("User").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	result := utils.CreatePaginationResult(orders, total, params)
	return &result, nil
}

func (s *AdminService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("User").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

type RefundOrderRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// RefundOrder refunds a completed order through Stripe and restocks its
// lines.
func (s *AdminService) RefundOrder(ctx context.Context, orderID uuid.UUID, req *RefundOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusCompleted || order.PaymentReference == "" {
		return nil, ErrOrderNotRefundable
	}

	if err := s.payments.RefundPayment(order.PaymentReference, req.Reason); err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Updates(map[string]interface{}{
			"status":        models.OrderStatusRefunded,
			"refunded_at":   now,
			"refund_reason": req.Reason,
		}).Error; err != nil {
			return fmt.Errorf("failed to mark order refunded: %w", err)
		}

		for _, item := range order.Items {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
				return fmt.Errorf("failed to restock product: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": orderID,
		"reason":   req.Reason,
	}).Info("Order refunded")

	order.Status = models.OrderStatusRefunded
	order.RefundedAt = &now
	order.RefundReason = req.Reason
	return order, nil
}

func (s *AdminService) GetSettings(ctx context.Context, category string) ([]models.StoreSetting, error) {
	query := s.db.WithContext(ctx).Model(&models.StoreSetting{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var settings []models.StoreSetting
	if err := query.Order("category ASC, key ASC").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

type UpdateSettingRequest struct {
	Value models.JSONB `json:"value" validate:"required"`
}

func (s *AdminService) UpdateSetting(ctx context.Context, category, key string, adminID uuid.UUID, req *UpdateSettingRequest) (*models.StoreSetting, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var setting models.StoreSetting
	err := s.db.WithContext(ctx).
		Where("category = ? AND key = ?", category, key).
		First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	updates := map[string]interface{}{
		"value":      req.Value,
		"updated_by": adminID,
	}
	if err := s.db.WithContext(ctx).Model(&setting).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update setting: %w", err)
	}

	setting.Value = req.Value
	setting.UpdatedBy = adminID
	return &setting, nil
}

type SalesPoint struct {
	Date    string  `json:"date"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type TopProduct struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	Revenue   float64   `json:"revenue"`
}

type SalesAnalytics struct {
	From        time.Time    `json:"from"`
	To          time.Time    `json:"to"`
	Timeline    []SalesPoint `json:"timeline"`
	TopProducts []TopProduct `json:"top_products"`
}

// GetSalesAnalytics aggregates completed orders per day plus the top
// selling products for the range.
func (s *AdminService) GetSalesAnalytics(ctx context.Context, from, to time.Time) (*SalesAnalytics, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}

	analytics := &SalesAnalytics{
		From:        from,
		To:          to,
		Timeline:    []SalesPoint{},
		TopProducts: []TopProduct{},
	}

	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("DATE(processed_at) as date, COUNT(*) as orders, COALESCE(SUM(total), 0) as revenue").
		Where("status = ? AND processed_at BETWEEN ? AND ?", models.OrderStatusCompleted, from, to).
		Group("DATE(processed_at)").
		Order("date ASC").
		Scan(&analytics.Timeline).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load sales timeline: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("order_items.product_id, order_items.name, SUM(order_items.quantity) as quantity, SUM(order_items.unit_price * order_items.quantity) as revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ? AND orders.processed_at BETWEEN ? AND ?", models.OrderStatusCompleted, from, to).
		Group("order_items.product_id, order_items.name").
		Order("quantity DESC").
		Limit(10).
		Scan(&analytics.TopProducts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}

	return analytics, nil
}

func (s *AdminService) GetNotifications(ctx context.Context, status string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.WithContext(ctx).Model(&models.AdminNotification{})

	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	allowedSorts := []string{"created_at", "priority"}
	query = utils.ApplySort(query, params, allowedSorts)
	query = utils.ApplyPagination(query, params)

	var notifications []models.AdminNotification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	result := utils.CreatePaginationResult(notifications, total, params)
	return &result, nil
}

func (s *AdminService) MarkNotificationRead(ctx context.Context, notificationID uuid.UUID) (*models.AdminNotification, error) {
	var notification models.AdminNotification
	err := s.db.WithContext(ctx).First(&notification, "id = ?", notificationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&notification).Updates(map[string]interface{}{
		"status":  "read",
		"read_at": now,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}

	notification.Status = "read"
	notification.ReadAt = &now
	return &notification, nil
}

func (s *AdminService) GetAuditLogs(ctx context.Context, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}

	allowedSorts := []string{"created_at", "action"}
	query = utils.ApplySort(query, params, allowedSorts)
	query = utils.ApplyPagination(query, params)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	result := utils.CreatePaginationResult(logs, total, params)
	return &result, nil
}
