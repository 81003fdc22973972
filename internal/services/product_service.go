// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/sapphirus/sapphirus-backend/internal/models"
	"github.com/sapphirus/sapphirus-backend/internal/utils"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

type ProductSearchParams struct {
	Query      string
	Category   string
	MinPrice   *float64
	MaxPrice   *float64
	InStock    bool
	Pagination utils.PaginationParams
}

type CreateProductRequest struct {
	Name          string   `json:"name" validate:"required,min=2,max=255"`
	Description   string   `json:"description" validate:"max=5000"`
	Category      string   `json:"category" validate:"required,max=100"`
	Size          string   `json:"size" validate:"max=20"`
	Price         float64  `json:"price" validate:"required,gt=0"`
	StockQuantity int      `json:"stock_quantity" validate:"min=0"`
	Images        []string `json:"images" validate:"max=10,dive,url"`
	Status        string   `json:"status" validate:"omitempty,oneof=draft active archived"`
}

type UpdateProductRequest struct {
	Name          *string  `json:"name" validate:"omitempty,min=2,max=255"`
	Description   *string  `json:"description" validate:"omitempty,max=5000"`
	Category      *string  `json:"category" validate:"omitempty,max=100"`
	Size          *string  `json:"size" validate:"omitempty,max=20"`
	Price         *float64 `json:"price" validate:"omitempty,gt=0"`
	StockQuantity *int     `json:"stock_quantity" validate:"omitempty,min=0"`
	Images        []string `json:"images" validate:"omitempty,max=10,dive,url"`
	Status        *string  `json:"status" validate:"omitempty,oneof=draft active archived"`
}

// SearchProducts serves the public catalog. Only active products are
// visible; filtering and sorting happen in the database.
func (s *ProductService) SearchProducts(ctx context.Context, params *ProductSearchParams) (*utils.PaginationResult, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("status = ?", models.ProductStatusActive)

	if params.Query != "" {
		searchTerm := strings.TrimSpace(params.Query)
		query = query.Where(
			"to_tsvector('english', name || ' ' || description) @@ plainto_tsquery('english', ?) OR name ILIKE ?",
			searchTerm, "%"+searchTerm+"%",
		)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.MinPrice != nil {
		query = query.Where("price >= ?", *params.MinPrice)
	}

	if params.MaxPrice != nil {
		query = query.Where("price <= ?", *params.MaxPrice)
	}

	if params.InStock {
		query = query.Where("stock_quantity > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSorts := []string{"created_at", "price", "name", "sales_count"}
	query = utils.ApplySort(query, params.Pagination, allowedSorts)
	query = utils.ApplyPagination(query, params.Pagination)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	result := utils.CreatePaginationResult(products, total, params.Pagination)
	return &result, nil
}

// GetProduct returns a single active product for the storefront.
func (s *ProductService) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Where("status = ?", models.ProductStatusActive).
		First(&product, "id = ?", productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) GetCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("status = ?", models.ProductStatusActive).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return categories, nil
}

func (s *ProductService) GetPopularProducts(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("status = ? AND stock_quantity > 0", models.ProductStatusActive).
		Order("sales_count DESC, created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load popular products: %w", err)
	}
	return products, nil
}

func (s *ProductService) GetNewestProducts(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("status = ?", models.ProductStatusActive).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load newest products: %w", err)
	}
	return products, nil
}

// AdminSearchProducts lists products in every status for the back office.
func (s *ProductService) AdminSearchProducts(ctx context.Context, status string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})

	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSorts := []string{"created_at", "price", "name", "stock_quantity", "sales_count"}
	query = utils.ApplySort(query, params, allowedSorts)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	result := utils.CreatePaginationResult(products, total, params)
	return &result, nil
}

func (s *ProductService) AdminGetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).First(&product, "id = ?", productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	status := models.ProductStatus(req.Status)
	if req.Status == "" {
		status = models.ProductStatusActive
	}

	product := &models.Product{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Size:          req.Size,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		Images:        pq.StringArray(req.Images),
		Status:        status,
	}

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, productID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.AdminGetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Size != nil {
		updates["size"] = *req.Size
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.StockQuantity != nil {
		updates["stock_quantity"] = *req.StockQuantity
	}
	if req.Images != nil {
		updates["images"] = pq.StringArray(req.Images)
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	if len(updates) == 0 {
		return product, nil
	}

	if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return s.AdminGetProduct(ctx, productID)
}

// DeleteProduct archives products that already appear in orders so the
// order history keeps a resolvable product reference, and soft-deletes
// the rest.
func (s *ProductService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	product, err := s.AdminGetProduct(ctx, productID)
	if err != nil {
		return err
	}

	var orderCount int64
	if err := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("product_id = ?", productID).
		Count(&orderCount).Error; err != nil {
		return fmt.Errorf("failed to check order history: %w", err)
	}

	if orderCount > 0 {
		if err := s.db.WithContext(ctx).Model(product).
			Update("status", models.ProductStatusArchived).Error; err != nil {
			return fmt.Errorf("failed to archive product: %w", err)
		}
		return nil
	}

	if err := s.db.WithContext(ctx).Delete(product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// AdjustStock applies a relative stock delta. Negative deltas only apply
// when enough stock remains, so concurrent adjustments cannot drive the
// count below zero.
func (s *ProductService) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (*models.Product, error) {
	if delta < 0 {
		result := s.db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND stock_quantity >= ?", productID, -delta).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
		if result.Error != nil {
			return nil, fmt.Errorf("failed to adjust stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			if _, err := s.AdminGetProduct(ctx, productID); err != nil {
				return nil, err
			}
			return nil, ErrInsufficientStock
		}
	} else if delta > 0 {
		result := s.db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", productID).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
		if result.Error != nil {
			return nil, fmt.Errorf("failed to adjust stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrProductNotFound
		}
	}

	return s.AdminGetProduct(ctx, productID)
}
